// Package filter implements the double keyword filter that decides whether a
// record is about hagwon instructors before any translation or classification
// budget is spent on it.
package filter

import (
	"fmt"
	"strings"
)

// Inclusion keyword sets. Matching is plain substring containment over
// title + " " + text, no normalization.
var (
	Keywords = []string{
		"학원",  // hagwon
		"사교육", // hagwon education
	}

	HagwonSpecific = []string{
		"학원가",     // hagwon district
		"학원 시장",   // hagwon market
		"학원업계",    // hagwon industry
		"학원 운영",   // hagwon operation
		"학원비",     // hagwon fees
		"수강료",     // tuition fees
		"학원 등록",   // hagwon enrollment
		"입시학원",    // exam prep hagwon
		"대형학원",    // large hagwon
		"스타강사",    // star instructor
		"온라인 강의",  // online lectures
		"인터넷 강의",  // internet lectures
		"학원 강사",   // hagwon instructor
		"학원강사",    // hagwon instructor, no space
		"학원 교사",   // hagwon teacher
		"학원교사",    // hagwon teacher, no space
		"보습학원",    // tutoring hagwon
		"입시",      // exam preparation
	}

	InstructorTerms = []string{
		"강사",  // instructor
		"교사",  // teacher
		"선생님", // teacher, honorific
		"강의",  // lecture
		"수업",  // class
	}
)

// Exclusion patterns. Any match rejects the record outright, before any
// inclusion logic runs.
var (
	FalsePositivePatterns = []string{
		"대학원 강사",    // graduate school instructor
		"대학원강사",
		"교육원 강사",    // education center instructor
		"교육원강사",
		"연수원 강사",    // training center instructor
		"연수원강사",
		"훈련원 강사",    // training institute instructor
		"훈련원강사",
		"문화원 강사",    // culture center instructor
		"문화원강사",
		"평생교육원 강사", // lifelong education center instructor
		"직업훈련원 강사", // vocational training center instructor
	}

	NonAcademicKeywords = []string{
		"미술학원", "미술 학원", "화실",
		"음악학원", "음악 학원", "피아노학원", "피아노 학원",
		"댄스학원", "댄스 학원", "발레", "방송댄스",
		"체육학원", "체육 학원", "태권도", "유도", "검도", "수영", "축구", "골프",
		"연기학원", "연기 학원", "뮤지컬",
		"요가학원", "요가 학원", "필라테스",
		"문화학원", "문화 학원",
	}
)

// Verdict is the filter decision with a human-readable reason.
type Verdict struct {
	Include bool
	Reason  string
}

// Classify runs the double filter over a record's title and text. Exclusions
// short-circuit; acceptance requires a base keyword, a hagwon-specific term,
// and an instructor term all present.
func Classify(title, text string) Verdict {
	combined := title + " " + text

	for _, p := range FalsePositivePatterns {
		if strings.Contains(combined, p) {
			return Verdict{Include: false, Reason: "false positive: " + p}
		}
	}

	for _, p := range NonAcademicKeywords {
		if strings.Contains(combined, p) {
			return Verdict{Include: false, Reason: "non-academic: " + p}
		}
	}

	var found []string
	for _, kw := range Keywords {
		if strings.Contains(combined, kw) {
			found = append(found, kw)
		}
	}
	if len(found) == 0 {
		return Verdict{Include: false, Reason: "no hagwon keywords"}
	}

	specific := matchAll(combined, HagwonSpecific)
	instructor := matchAll(combined, InstructorTerms)

	// strict rule: both a hagwon-specific term and an instructor term
	if len(specific) == 0 || len(instructor) == 0 {
		return Verdict{Include: false, Reason: "missing hagwon-specific or instructor terms"}
	}

	reason := fmt.Sprintf("verified: %s + %s + %s",
		strings.Join(found, ", "),
		strings.Join(head(specific, 2), ", "),
		strings.Join(head(instructor, 2), ", "))
	return Verdict{Include: true, Reason: reason}
}

func matchAll(s string, terms []string) []string {
	var out []string
	for _, t := range terms {
		if strings.Contains(s, t) {
			out = append(out, t)
		}
	}
	return out
}

func head(s []string, n int) []string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
