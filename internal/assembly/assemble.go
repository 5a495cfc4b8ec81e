// Package assembly turns verified recommendations into a persisted package.
package assembly

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/jonathan/content-curator/internal/logging"
	"github.com/jonathan/content-curator/internal/prompts"
	"github.com/jonathan/content-curator/internal/ranking"
	"github.com/jonathan/content-curator/internal/types"
)

const (
	defaultCompany     = "기업"
	defaultTargetGroup = "직원"
	defaultGoal        = "역량개발"
	defaultDuration    = "2개월"
	goalNameRunes      = 20
)

// PackageSink persists a package and its items atomically.
type PackageSink interface {
	CreatePackage(ctx context.Context, pkg *types.Package) (int64, error)
}

// Assembler builds the final Result and stores the package.
type Assembler struct {
	sink PackageSink
	now  func() time.Time
}

// NewAssembler creates an Assembler.
func NewAssembler(sink PackageSink) *Assembler {
	return &Assembler{sink: sink, now: time.Now}
}

// WithClock overrides the clock used for the recent-content ratio.
func (a *Assembler) WithClock(now func() time.Time) *Assembler {
	a.now = now
	return a
}

// Assemble orders the verified outcomes, computes the summary and learning
// path, and persists the package. When nothing verified, every outcome is used
// and the result is marked degraded.
func (a *Assembler) Assemble(
	ctx context.Context,
	outcomes []types.VerificationOutcome,
	validated []types.ValidatedItem,
	profile *types.RequirementProfile,
	stageMetrics types.PipelineMetrics,
) (*types.Result, error) {
	if profile == nil {
		profile = &types.RequirementProfile{}
	}

	chosen, degraded := selectOutcomes(outcomes)
	if degraded {
		logging.Ctx(ctx).Warn().
			Int("outcomes", len(outcomes)).
			Msg("no recommendation passed verification, using all outcomes")
	}

	byID := make(map[int64]*types.ValidatedItem, len(validated))
	for i := range validated {
		id := validated[i].Scored.Item.ID
		if _, ok := byID[id]; !ok {
			byID[id] = &validated[i]
		}
	}

	currentYear := a.now().Year()
	selected := make([]types.SelectedContent, 0, len(chosen))
	path := types.LearningPath{
		Foundation:   []int64{},
		Intermediate: []int64{},
		Advanced:     []int64{},
	}
	var totalFee int64
	totalSessions := 0
	recent := 0

	for _, outcome := range chosen {
		v, ok := byID[outcome.ItemID]
		if !ok {
			continue
		}
		item := &v.Scored.Item

		selected = append(selected, types.SelectedContent{
			ContentID:       item.ID,
			Title:           item.Title,
			Order:           len(selected) + 1,
			Reason:          outcome.Reason,
			Score:           int(math.Round(v.Scored.Scores.Total * 100)),
			RelevanceScore:  v.Judgment.Score,
			MatchedKeywords: append([]string{}, v.Scored.MatchedKeywords...),
			Verified:        outcome.Verified || degraded,
		})

		switch types.ClassifyDifficulty(item.DifficultyLevel()) {
		case types.DifficultyFoundation:
			path.Foundation = append(path.Foundation, item.ID)
		case types.DifficultyAdvanced:
			path.Advanced = append(path.Advanced, item.ID)
		default:
			path.Intermediate = append(path.Intermediate, item.ID)
		}

		totalFee += item.Fee
		totalSessions += item.Sessions
		if year, ok := ranking.ParseYear(item.DevelopmentYear); ok && year >= currentYear-1 {
			recent++
		}
	}

	if len(selected) == 0 {
		return nil, fmt.Errorf("no validated item matches the %d verification outcomes", len(outcomes))
	}

	stageMetrics.Stage7Final = len(selected)
	result := &types.Result{
		PackageName:      PackageName(profile),
		Description:      PackageDescription(profile, len(selected)),
		SelectedContents: selected,
		Summary: types.Summary{
			TotalFee:           totalFee,
			TotalSessions:      totalSessions,
			EstimatedDuration:  orDefault(profile.Duration, defaultDuration),
			LatestContentRatio: int(math.Round(100 * float64(recent) / float64(len(selected)))),
			TotalRecommended:   len(selected),
		},
		LearningPath: path,
		Metrics:      stageMetrics,
		Degraded:     degraded,
	}

	pkg, err := buildPackage(result, profile)
	if err != nil {
		return nil, err
	}
	id, err := a.sink.CreatePackage(ctx, pkg)
	if err != nil {
		return nil, fmt.Errorf("failed to persist package: %w", err)
	}
	result.PackageID = id

	logging.Ctx(ctx).Info().
		Int64("package_id", id).
		Int("items", len(selected)).
		Bool("degraded", degraded).
		Msg("package assembled")
	return result, nil
}

// selectOutcomes keeps verified outcomes, or all of them when none verified.
func selectOutcomes(outcomes []types.VerificationOutcome) ([]types.VerificationOutcome, bool) {
	verified := make([]types.VerificationOutcome, 0, len(outcomes))
	for _, o := range outcomes {
		if o.Verified {
			verified = append(verified, o)
		}
	}
	if len(verified) == 0 && len(outcomes) > 0 {
		return outcomes, true
	}
	return verified, false
}

// PackageName builds "{company} {targetGroup} {goal} 패키지" with the goal
// cut to its first 20 runes.
func PackageName(profile *types.RequirementProfile) string {
	goal := []rune(profile.LearningGoal)
	if len(goal) > goalNameRunes {
		goal = goal[:goalNameRunes]
	}
	return prompts.Render(prompts.RecommendFile, "package_name", map[string]string{
		"Company":     orDefault(profile.Company, defaultCompany),
		"TargetGroup": orDefault(profile.TargetGroup, defaultTargetGroup),
		"Goal":        orDefault(string(goal), defaultGoal),
	})
}

// PackageDescription renders the package description for count items.
func PackageDescription(profile *types.RequirementProfile, count int) string {
	return prompts.Render(prompts.RecommendFile, "package_description", map[string]string{
		"LearningGoal": orDefault(profile.LearningGoal, defaultGoal),
		"Count":        strconv.Itoa(count),
	})
}

func buildPackage(result *types.Result, profile *types.RequirementProfile) (*types.Package, error) {
	snapshot, err := json.Marshal(profile)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal requirement snapshot: %w", err)
	}

	items := make([]types.PackageItem, len(result.SelectedContents))
	for i, sc := range result.SelectedContents {
		items[i] = types.PackageItem{
			ContentID: sc.ContentID,
			Order:     sc.Order,
			Reason:    sc.Reason,
			Score:     sc.Score,
		}
	}

	return &types.Package{
		Name:                result.PackageName,
		Description:         result.Description,
		TargetCompany:       profile.Company,
		TargetGroup:         profile.TargetGroup,
		RequirementSnapshot: snapshot,
		Status:              types.PackageStatusActive,
		Items:               items,
	}, nil
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
