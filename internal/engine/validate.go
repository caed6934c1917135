package engine

import (
	"strings"

	"github.com/octobees/orgscout/internal/entity"
)

// defaultDescThreshold is the minimum description length that can stand in
// for a missing contact method at the validation gate.
const defaultDescThreshold = 10

// Validate is the final acceptance gate. A name under two characters is
// always rejected; past that the policy is permissive: any contact method,
// a usable description, or the keep-incomplete flag lets the entry through.
// Dropping a real organization is worse than keeping a thin record that
// review or a later run can still complete.
func Validate(e *entity.OrganizationEntry, descThreshold int, keepIncomplete bool) bool {
	if e == nil {
		return false
	}
	if len([]rune(strings.TrimSpace(e.Name))) < 2 {
		return false
	}
	if descThreshold <= 0 {
		descThreshold = defaultDescThreshold
	}
	if e.HasContactMethod() {
		return true
	}
	if len(strings.TrimSpace(e.Description)) >= descThreshold {
		return true
	}
	return keepIncomplete
}

// FinalScore folds enrichment evidence into the parser's provisional score.
// Only additions, so the score never decreases as enrichment succeeds;
// capped at 10.
func FinalScore(e *entity.OrganizationEntry) int {
	score := e.QualityScore
	if e.Email != "" {
		score += 2
	}
	if e.Phone != "" {
		score += 2
	}
	if e.WhatsApp != "" || e.LineID != "" || e.Telegram != "" || e.WeChat != "" {
		score++
	}
	if e.Facebook != "" || e.Instagram != "" || e.LinkedIn != "" {
		score++
	}
	if score > 10 {
		score = 10
	}
	return score
}
