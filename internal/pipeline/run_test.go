package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/content-curator/internal/db"
	"github.com/jonathan/content-curator/internal/types"
)

const pythonIntent = `분석 결과입니다.
{"primaryKeywords": ["파이썬", "데이터", "분석"], "domain": "IT/개발", "targetLevel": "입문"}`

func fixedNow() time.Time {
	return time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
}

func pythonCatalog() []types.CatalogItem {
	return []types.CatalogItem{
		{
			ID:              1,
			Title:           "Python 데이터분석 기초",
			MajorCategory:   "IT",
			MiddleCategory:  "데이터",
			MinorCategory:   "분석",
			Level0:          "입문",
			Intro:           "파이썬으로 데이터 분석을 배웁니다",
			Objective:       "데이터 분석 입문자를 위한 파이썬 기초",
			TargetAudience:  "데이터 분석 입문자",
			Fee:             100000,
			Sessions:        10,
			DevelopmentYear: "2025",
		},
		{
			ID:    2,
			Title: "마케팅 전략 수립",
			Intro: "브랜드 전략",
		},
		{
			// Weak match with no embedding and no year: stays under the threshold.
			ID:     3,
			Title:  "데이터 시각화 심화",
			Level0: "심화",
		},
	}
}

func newTestPipeline(client *MockLLMClient, store *fakeStore, opts Options) *Pipeline {
	if opts.Config.Weights.Sum() == 0 {
		opts.Config = types.DefaultPipelineConfig()
	}
	opts.Now = fixedNow
	return New(client, store, opts)
}

func happyClient() *MockLLMClient {
	return &MockLLMClient{
		IntentFunc: func(string) (string, error) { return pythonIntent, nil },
		JudgeFunc: func(string) (string, error) {
			return `[{"itemId": 1, "relevanceScore": 9, "reason": "직접 관련"}]`, nil
		},
		GroundFunc: func(string) (string, error) {
			return "이 과정은 '파이썬으로 데이터 분석을 배웁니다'라고 소개되어 목표에 부합합니다.", nil
		},
		QueryVector: []float32{1, 0},
	}
}

func pythonProfile() *types.RequirementProfile {
	return &types.RequirementProfile{
		Company:      "테스트회사",
		TargetGroup:  "신입사원",
		SkillLevel:   "입문",
		LearningGoal: "파이썬 데이터 분석 입문",
	}
}

func requireRecommendationError(t *testing.T, err error) *types.RecommendationError {
	t.Helper()
	require.Error(t, err)
	var recErr *types.RecommendationError
	require.True(t, errors.As(err, &recErr), "error must be a RecommendationError: %T", err)
	return recErr
}

func TestRun_PythonScenario(t *testing.T) {
	store := &fakeStore{
		items:      pythonCatalog(),
		embeddings: map[int64][]float32{1: {1, 0}},
	}
	recorder := &fakeRecorder{}
	var mu sync.Mutex
	var steps []string

	p := newTestPipeline(happyClient(), store, Options{
		Recorder: recorder,
		OnProgress: func(e ProgressEvent) {
			mu.Lock()
			defer mu.Unlock()
			assert.NotEmpty(t, e.RunID)
			steps = append(steps, e.Step)
		},
	})

	result, err := p.Run(context.Background(), pythonProfile())
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Equal(t, int64(7), result.PackageID)
	assert.False(t, result.Degraded)
	require.Len(t, result.SelectedContents, 1)
	sc := result.SelectedContents[0]
	assert.Equal(t, int64(1), sc.ContentID)
	assert.Equal(t, 1, sc.Order)
	assert.Equal(t, 93, sc.Score)
	assert.Equal(t, 9, sc.RelevanceScore)
	assert.ElementsMatch(t, []string{"파이썬", "데이터", "분석"}, sc.MatchedKeywords)
	assert.True(t, sc.Verified)

	assert.Equal(t, []int64{1}, result.LearningPath.Foundation)
	assert.Equal(t, "테스트회사 신입사원 파이썬 데이터 분석 입문 패키지", result.PackageName)

	assert.Equal(t, types.PipelineMetrics{
		Stage1Keywords:  3,
		Stage2Filtered:  2,
		Stage3Scored:    1,
		Stage4Validated: 1,
		Stage5Grounded:  1,
		Stage6Verified:  1,
		Stage7Final:     1,
	}, result.Metrics)

	assert.Equal(t, []string{
		string(types.StageIntent), string(types.StageHardFilter), string(types.StageScoring),
		string(types.StageValidation), string(types.StageGrounding), string(types.StageVerification),
		string(types.StageAssembly),
	}, steps)

	require.Len(t, store.saved, 1)
	assert.Len(t, store.saved[0].Items, 1)

	assert.Equal(t, []string{"파이썬 데이터 분석 입문"}, recorder.created)
	assert.Equal(t, db.RunStatusCompleted, recorder.status)
	assert.Equal(t, int64(7), recorder.packageID)
	assert.Contains(t, recorder.artifacts, db.StepIntent)
	assert.Contains(t, recorder.artifacts, db.StepResult)
	assert.Contains(t, recorder.artifacts, db.StepMetrics)
	assert.NotContains(t, recorder.artifacts, db.StepError)
}

func TestRun_IsDeterministic(t *testing.T) {
	run := func() *types.Result {
		store := &fakeStore{items: pythonCatalog(), embeddings: map[int64][]float32{1: {1, 0}}}
		result, err := newTestPipeline(happyClient(), store, Options{}).Run(context.Background(), pythonProfile())
		require.NoError(t, err)
		return result
	}
	assert.Equal(t, run(), run())
}

func TestRun_NarratesSteps(t *testing.T) {
	var out strings.Builder
	store := &fakeStore{items: pythonCatalog(), embeddings: map[int64][]float32{1: {1, 0}}}

	_, err := newTestPipeline(happyClient(), store, Options{Out: &out}).Run(context.Background(), pythonProfile())
	require.NoError(t, err)

	assert.Contains(t, out.String(), "Step 1/7")
	assert.Contains(t, out.String(), "Step 7/7")
	assert.Contains(t, out.String(), "Package #7")
}

func TestRun_NoResultAtHardFilter(t *testing.T) {
	store := &fakeStore{items: []types.CatalogItem{{ID: 9, Title: "회계 원리"}}}
	recorder := &fakeRecorder{}

	result, err := newTestPipeline(happyClient(), store, Options{Recorder: recorder}).Run(context.Background(), pythonProfile())
	assert.Nil(t, result)

	recErr := requireRecommendationError(t, err)
	assert.Equal(t, types.StageHardFilter, recErr.Stage)
	assert.Equal(t, "Hard Filter 단계에서 관련 콘텐츠를 찾지 못했습니다.", recErr.Message)
	assert.Equal(t, "검색 조건을 조정하거나 다른 키워드로 시도해주세요.", recErr.Suggestion)
	assert.Equal(t, []string{
		"다음 키워드로 재시도: 파이썬, 데이터, 분석",
		"학습 목표를 더 구체적으로 입력해주세요",
		"기술 스택을 명시해주세요",
	}, recErr.Alternatives)
	assert.Empty(t, recErr.Candidates)
	assert.False(t, recErr.RequiresManualReview)

	assert.Empty(t, store.saved)
	assert.Equal(t, db.RunStatusNoResult, recorder.status)
	assert.Contains(t, recorder.artifacts, db.StepError)
}

func TestRun_NoResultAtScoring(t *testing.T) {
	store := &fakeStore{items: pythonCatalog()[2:]}

	_, err := newTestPipeline(happyClient(), store, Options{}).Run(context.Background(), pythonProfile())

	recErr := requireRecommendationError(t, err)
	assert.Equal(t, types.StageScoring, recErr.Stage)
	assert.Equal(t, "Hybrid Scoring 단계에서 임계값을 통과한 콘텐츠가 없습니다.", recErr.Message)
	assert.Empty(t, store.saved)
}

func TestRun_NoResultAtValidationCarriesCandidates(t *testing.T) {
	items := make([]types.CatalogItem, 0, 12)
	embeddings := map[int64][]float32{}
	for i := int64(1); i <= 12; i++ {
		item := pythonCatalog()[0]
		item.ID = i
		items = append(items, item)
		embeddings[i] = []float32{1, 0}
	}
	store := &fakeStore{items: items, embeddings: embeddings}
	client := happyClient()
	client.JudgeFunc = func(string) (string, error) {
		return `[{"itemId": 1, "relevanceScore": 2, "reason": "무관"}]`, nil
	}

	_, err := newTestPipeline(client, store, Options{}).Run(context.Background(), pythonProfile())

	recErr := requireRecommendationError(t, err)
	assert.Equal(t, types.StageValidation, recErr.Stage)
	assert.Equal(t, "LLM 관련성 검증을 통과한 콘텐츠가 없습니다.", recErr.Message)
	require.Len(t, recErr.Candidates, types.MaxNearMissCandidates)
	assert.Equal(t, int64(1), recErr.Candidates[0].ID)
	assert.True(t, recErr.RequiresManualReview)
	assert.Equal(t, 2, client.calls("validation"))
	assert.Zero(t, client.calls("grounding"))
}

func TestRun_AllVerificationFailuresDegrade(t *testing.T) {
	store := &fakeStore{items: pythonCatalog(), embeddings: map[int64][]float32{1: {1, 0}}}
	client := happyClient()
	client.GroundFunc = func(string) (string, error) {
		return "이 과정은 '쿠버네티스 클러스터 운영 실습'을 포함합니다.", nil
	}

	result, err := newTestPipeline(client, store, Options{}).Run(context.Background(), pythonProfile())
	require.NoError(t, err)

	assert.True(t, result.Degraded)
	assert.Equal(t, 0, result.Metrics.Stage6Verified)
	require.Len(t, result.SelectedContents, 1)
	assert.True(t, result.SelectedContents[0].Verified)
	require.Len(t, store.saved, 1)
}

func TestRun_IntentFallbackStillRecommends(t *testing.T) {
	store := &fakeStore{items: pythonCatalog(), embeddings: map[int64][]float32{1: {1, 0}}}
	client := happyClient()
	client.IntentFunc = func(string) (string, error) { return "", errors.New("provider unavailable") }

	result, err := newTestPipeline(client, store, Options{}).Run(context.Background(), pythonProfile())
	require.NoError(t, err)

	// Fallback tokens: 파이썬, 데이터, 분석, 입문.
	assert.Equal(t, 4, result.Metrics.Stage1Keywords)
	assert.Equal(t, []int64{1}, result.LearningPath.Foundation)
}

func TestRun_StoreFailureIsGeneric(t *testing.T) {
	cause := errors.New("connection reset")
	store := &fakeStore{searchErr: cause}
	recorder := &fakeRecorder{}

	result, err := newTestPipeline(happyClient(), store, Options{Recorder: recorder}).Run(context.Background(), pythonProfile())
	assert.Nil(t, result)

	recErr := requireRecommendationError(t, err)
	assert.Equal(t, types.StageHardFilter, recErr.Stage)
	assert.Equal(t, "추천 생성 중 오류가 발생했습니다.", recErr.Message)
	assert.Equal(t, "잠시 후 다시 시도해주세요.", recErr.Suggestion)
	assert.Len(t, recErr.Alternatives, 2)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, db.RunStatusFailed, recorder.status)
}

func TestRun_EmbeddingFailureIsGeneric(t *testing.T) {
	store := &fakeStore{items: pythonCatalog()}
	client := happyClient()
	client.EmbedErr = errors.New("quota exceeded")

	_, err := newTestPipeline(client, store, Options{}).Run(context.Background(), pythonProfile())

	recErr := requireRecommendationError(t, err)
	assert.Equal(t, types.StageScoring, recErr.Stage)
	assert.Equal(t, "추천 생성 중 오류가 발생했습니다.", recErr.Message)
}

func TestRun_PersistFailureSavesNothing(t *testing.T) {
	store := &fakeStore{
		items:      pythonCatalog(),
		embeddings: map[int64][]float32{1: {1, 0}},
		createErr:  errors.New("constraint violation"),
	}

	result, err := newTestPipeline(happyClient(), store, Options{}).Run(context.Background(), pythonProfile())
	assert.Nil(t, result)

	recErr := requireRecommendationError(t, err)
	assert.Equal(t, types.StageAssembly, recErr.Stage)
	assert.Empty(t, store.saved)
}

func TestRun_RecoversPanic(t *testing.T) {
	store := &fakeStore{items: pythonCatalog(), panicOn: "search"}
	recorder := &fakeRecorder{}

	var result *types.Result
	var err error
	require.NotPanics(t, func() {
		result, err = newTestPipeline(happyClient(), store, Options{Recorder: recorder}).Run(context.Background(), pythonProfile())
	})
	assert.Nil(t, result)

	recErr := requireRecommendationError(t, err)
	assert.Equal(t, types.StageHardFilter, recErr.Stage)
	assert.Equal(t, "추천 생성 중 오류가 발생했습니다.", recErr.Message)
	assert.Contains(t, recErr.Cause.Error(), "catalog exploded")
	assert.Equal(t, db.RunStatusFailed, recorder.status)
}

func TestRun_RecoversPanicInReasonWorker(t *testing.T) {
	store := &fakeStore{items: pythonCatalog(), embeddings: map[int64][]float32{1: {1, 0}}}
	client := happyClient()
	client.GroundFunc = func(string) (string, error) { panic("provider SDK bug") }

	var result *types.Result
	var err error
	require.NotPanics(t, func() {
		result, err = newTestPipeline(client, store, Options{}).Run(context.Background(), pythonProfile())
	})
	require.NoError(t, err)
	require.NotNil(t, result)

	require.Len(t, result.SelectedContents, 1)
	sc := result.SelectedContents[0]
	assert.Equal(t, int64(1), sc.ContentID)
	assert.Contains(t, sc.Reason, "은(는) 입문 수준에 적합한 교육 콘텐츠입니다.")
	assert.True(t, sc.Verified)
	assert.False(t, result.Degraded)
}

func TestRun_JournalFailureDoesNotChangeOutcome(t *testing.T) {
	store := &fakeStore{items: pythonCatalog(), embeddings: map[int64][]float32{1: {1, 0}}}
	recorder := &fakeRecorder{err: errors.New("journal table missing")}

	result, err := newTestPipeline(happyClient(), store, Options{Recorder: recorder}).Run(context.Background(), pythonProfile())
	require.NoError(t, err)
	assert.Equal(t, int64(7), result.PackageID)
}

func TestRun_EmptyProfile(t *testing.T) {
	store := &fakeStore{items: pythonCatalog(), embeddings: map[int64][]float32{1: {1, 0}}}
	client := happyClient()
	client.IntentFunc = func(string) (string, error) { return `{"primaryKeywords": []}`, nil }
	client.JudgeFunc = func(string) (string, error) { return `[]`, nil }

	_, err := newTestPipeline(client, store, Options{}).Run(context.Background(), nil)

	// No keywords: the newest items are scored and the judge rejects them all.
	recErr := requireRecommendationError(t, err)
	assert.Equal(t, types.StageValidation, recErr.Stage)
	require.Len(t, recErr.Candidates, 1)
	assert.Equal(t, int64(1), recErr.Candidates[0].ID)
	assert.Equal(t, []string{
		"다음 키워드로 재시도: ",
		"학습 목표를 더 구체적으로 입력해주세요",
		"기술 스택을 명시해주세요",
	}, recErr.Alternatives)
}

func TestNearMisses(t *testing.T) {
	scored := []types.ScoredItem{{Item: types.CatalogItem{ID: 1}}, {Item: types.CatalogItem{ID: 2}}}

	assert.Nil(t, nearMisses(scored, 0))
	assert.Len(t, nearMisses(scored, 10), 2)
	assert.Len(t, nearMisses(scored, 1), 1)
}
