package services

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// KnowledgeEntry is one row of the static bilingual fallback table. The
// table is loaded at startup and immutable for the process lifetime.
type KnowledgeEntry struct {
	ID        string `json:"id"`
	Question  string `json:"question"`
	AnswerFr  string `json:"answer_fr"`
	AnswerAr  string `json:"answer_ar"`
	ServiceID string `json:"service_id"`
}

// Recommendation points the citizen at the service behind a matched answer.
type Recommendation struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// Fallback result sources.
const (
	SourceAI            = "ai"
	SourceKnowledgeBase = "knowledge-base"
	SourceDefault       = "default"
)

// FallbackResult is the degraded-mode reply shape. Source lets the portal
// UI indicate that the answer did not come from the AI gateway.
type FallbackResult struct {
	Message         string           `json:"message"`
	Recommendations []Recommendation `json:"recommendations"`
	Source          string           `json:"source"`
}

// Resolver deterministically answers a question from the fallback table by
// keyword overlap. It is a pure function of its table: no network, no
// randomness, same input same output.
type Resolver struct {
	entries []KnowledgeEntry
	tokens  [][]string
}

// NewResolver pre-tokenizes the table questions once.
func NewResolver(entries []KnowledgeEntry) *Resolver {
	r := &Resolver{entries: entries, tokens: make([][]string, len(entries))}
	for i, entry := range entries {
		r.tokens[i] = strings.Fields(normalizeText(entry.Question))
	}
	return r
}

// Resolve scores each table entry by how many of its question tokens appear
// as whole words in the normalized input. The max-scoring entry wins; ties
// keep the first entry in table order. A zero score still answers with the
// first entry but tagged SourceDefault so callers can tell a real match
// from the shrug.
func (r *Resolver) Resolve(question, language string) FallbackResult {
	if len(r.entries) == 0 {
		return FallbackResult{Source: SourceDefault}
	}

	words := make(map[string]struct{})
	for _, w := range strings.Fields(normalizeText(question)) {
		words[w] = struct{}{}
	}

	best := 0
	bestScore := 0
	for i, tokens := range r.tokens {
		score := 0
		for _, token := range tokens {
			if _, ok := words[token]; ok {
				score++
			}
		}
		if score > bestScore {
			best = i
			bestScore = score
		}
	}

	entry := r.entries[best]
	source := SourceKnowledgeBase
	if bestScore == 0 {
		source = SourceDefault
	}

	answer := entry.AnswerFr
	if language == "ar" {
		answer = entry.AnswerAr
	}

	return FallbackResult{
		Message:         answer,
		Recommendations: []Recommendation{{ID: entry.ServiceID, Title: entry.Question}},
		Source:          source,
	}
}

// Entries exposes the table for the knowledge endpoints.
func (r *Resolver) Entries() []KnowledgeEntry {
	return r.entries
}

var stripMarks = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)))

// normalizeText lowercases, NFKD-decomposes, drops diacritic marks and
// strips punctuation, keeping letters, digits and spaces (Latin and Arabic
// alike).
func normalizeText(text string) string {
	decomposed, _, err := transform.String(stripMarks, strings.ToLower(text))
	if err != nil {
		decomposed = strings.ToLower(text)
	}

	var sb strings.Builder
	sb.Grow(len(decomposed))
	for _, r := range decomposed {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			sb.WriteRune(r)
		case unicode.IsSpace(r):
			sb.WriteRune(' ')
		}
	}
	return strings.TrimSpace(sb.String())
}

// DefaultKnowledgeTable is the built-in bilingual FAQ used when no table is
// configured. Entries mirror the portal's offline FAQ.
func DefaultKnowledgeTable() []KnowledgeEntry {
	return []KnowledgeEntry{
		{
			ID:        "birth-cert",
			Question:  "Comment obtenir un acte de naissance ?",
			AnswerFr:  "Rendez-vous au bureau d'état civil avec une pièce d'identité et le livret de famille.",
			AnswerAr:  "للحصول على شهادة الميلاد، توجه إلى مصلحة الحالة المدنية مصحوبًا ببطاقة الهوية وكتيب العائلة.",
			ServiceID: "svc_birth_certificate",
		},
		{
			ID:        "passport-docs",
			Question:  "Pièces pour passeport",
			AnswerFr:  "Préparez deux photos, un justificatif de domicile et votre carte nationale.",
			AnswerAr:  "جهز صورتين شمسيتين، إثبات سكن، وبطاقة الهوية الوطنية.",
			ServiceID: "svc_passport",
		},
		{
			ID:        "legal-aid",
			Question:  "Aide juridique gratuite",
			AnswerFr:  "Contactez la maison de justice locale pour les permanences gratuites.",
			AnswerAr:  "اتصل بدار العدالة المحلية للاستفادة من الاستشارات المجانية.",
			ServiceID: "svc_legal_aid",
		},
	}
}
