package types

import "strings"

// DomainKeywords pairs a domain name with the keywords that signal it.
type DomainKeywords struct {
	Domain   string
	Keywords []string
}

// Vocabularies are fixed at init and only exposed through copies.
var (
	domainTable = []DomainKeywords{
		{Domain: "IT/개발", Keywords: []string{"개발", "IT", "프로그래밍", "소프트웨어", "데이터", "인공지능", "AI", "클라우드"}},
		{Domain: "경영/관리", Keywords: []string{"경영", "관리", "리더십", "MBA", "전략", "조직"}},
		{Domain: "마케팅", Keywords: []string{"마케팅", "광고", "브랜딩", "디지털마케팅", "SNS"}},
		{Domain: "디자인", Keywords: []string{"디자인", "UI", "UX", "그래픽", "편집"}},
		{Domain: "금융/회계", Keywords: []string{"금융", "회계", "재무", "투자", "보험"}},
		{Domain: "인사/조직", Keywords: []string{"인사", "HR", "채용", "평가", "조직문화"}},
		{Domain: "영업/고객", Keywords: []string{"영업", "세일즈", "고객", "CS", "서비스"}},
	}

	techKeywords = []string{
		"Flutter", "React", "Vue", "Angular", "Python", "Java", "JavaScript", "TypeScript",
		"Node.js", "TensorFlow", "PyTorch", "AWS", "Docker", "Kubernetes", "Spring", "Django",
		"FastAPI", "Next.js", "GraphQL", "REST", "SQL", "NoSQL", "MongoDB", "PostgreSQL",
		"Redis", "Kafka", "RabbitMQ", "Git", "CI/CD", "DevOps", "Machine Learning",
		"Deep Learning", "NLP", "Computer Vision", "LLM", "GPT", "Transformer", "CNN", "RNN",
		"LSTM", "GAN", "Reinforcement Learning",
	}

	foundationLevels = []string{"입문", "기초", "초급"}
	advancedLevels   = []string{"심화", "고급", "전문"}
)

// DomainTable returns the domain keyword table in detection order.
func DomainTable() []DomainKeywords {
	out := make([]DomainKeywords, len(domainTable))
	for i, d := range domainTable {
		out[i] = DomainKeywords{Domain: d.Domain, Keywords: append([]string(nil), d.Keywords...)}
	}
	return out
}

// DomainKeywordsFor returns the keywords of a domain, or nil when unknown.
func DomainKeywordsFor(domain string) []string {
	for _, d := range domainTable {
		if d.Domain == domain {
			return append([]string(nil), d.Keywords...)
		}
	}
	return nil
}

// IsKnownDomain reports whether domain is one of the enumerated domains.
func IsKnownDomain(domain string) bool {
	for _, d := range domainTable {
		if d.Domain == domain {
			return true
		}
	}
	return false
}

// DetectDomain returns the first domain whose keywords occur in text
// (case-insensitive), or fallback when none match.
func DetectDomain(text, fallback string) string {
	lower := strings.ToLower(text)
	for _, d := range domainTable {
		for _, kw := range d.Keywords {
			if strings.Contains(lower, strings.ToLower(kw)) {
				return d.Domain
			}
		}
	}
	return fallback
}

// TechKeywords returns the technology vocabulary used for hallucination checks.
func TechKeywords() []string {
	return append([]string(nil), techKeywords...)
}

// Difficulty is a learning-path bucket.
type Difficulty string

const (
	DifficultyFoundation   Difficulty = "foundation"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
)

// ClassifyDifficulty buckets a free-text level label.
func ClassifyDifficulty(level string) Difficulty {
	lower := strings.ToLower(level)
	for _, v := range foundationLevels {
		if strings.Contains(lower, v) {
			return DifficultyFoundation
		}
	}
	for _, v := range advancedLevels {
		if strings.Contains(lower, v) {
			return DifficultyAdvanced
		}
	}
	return DifficultyIntermediate
}
