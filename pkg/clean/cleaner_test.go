package clean

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"notice-watcher/pkg/config"
)

func newTestCleaner() *Cleaner {
	return NewCleaner(config.CleanerConfig{LookaheadLines: 15})
}

func TestClean_Empty(t *testing.T) {
	assert.Equal(t, "", newTestCleaner().Clean(""))
}

func TestClean_CutoffRemovesTail(t *testing.T) {
	raw := strings.Join([]string{
		"Approval was based on trial results.",
		"This review was conducted under Project Orbis.",
		"Follow-up marketing text.",
		"More marketing text.",
	}, "\n")

	got := newTestCleaner().Clean(raw)
	assert.Equal(t, "Approval was based on trial results.", got)
}

func TestClean_CutoffSuppressedByDosageAhead(t *testing.T) {
	raw := strings.Join([]string{
		"A",
		"This review used the Assessment Aid.",
		"100 mg orally once daily",
		"B",
	}, "\n")

	got := newTestCleaner().Clean(raw)
	assert.Equal(t, "A\n100 mg orally once daily\nB", got,
		"cutoff line is dropped but content is preserved when dosage follows")
}

func TestClean_CutoffSuppressedByDosageBehindColonLine(t *testing.T) {
	raw := strings.Join([]string{
		"Intro.",
		"The application was granted priority review.",
		"The recommended dosage is:",
		"",
		"120 mg for patients 50 kg and greater",
	}, "\n")

	got := newTestCleaner().Clean(raw)
	assert.Contains(t, got, "120 mg for patients 50 kg and greater")
	assert.NotContains(t, got, "priority review")
}

func TestClean_CutoffSuppressedAfterColonLine(t *testing.T) {
	raw := strings.Join([]string{
		"Dosing schedule:",
		"This review used the Real-Time Oncology Review pilot program.",
		"Continue treatment until disease progression.",
	}, "\n")

	got := newTestCleaner().Clean(raw)
	assert.Contains(t, got, "Continue treatment until disease progression.")
	assert.NotContains(t, got, "Real-Time Oncology Review")
}

func TestClean_CutoffAppliesWhenDosageBeyondLookahead(t *testing.T) {
	lines := []string{"Intro.", "This review used the Assessment Aid."}
	for i := 0; i < 20; i++ {
		lines = append(lines, "Filler sentence without relevant units.")
	}
	lines = append(lines, "100 mg orally once daily")

	got := newTestCleaner().Clean(strings.Join(lines, "\n"))
	assert.Equal(t, "Intro.", got)
}

func TestClean_BoilerplateAnchoredAtLineStart(t *testing.T) {
	raw := strings.Join([]string{
		"Full prescribing information for DRUG is available.",
		"Patients should read the full prescribing information for DRUG carefully.",
	}, "\n")

	got := newTestCleaner().Clean(raw)
	assert.Equal(t, "Patients should read the full prescribing information for DRUG carefully.", got)
}

func TestClean_BoilerplateLines(t *testing.T) {
	raw := strings.Join([]string{
		"Keep this sentence.",
		"Follow the Oncology Center of Excellence on X (formerly Twitter).",
		"Healthcare professionals should report all serious adverse events to MedWatch.",
		"View full prescribing information for DRUG.",
		"For information on the COVID-19 pandemic, see the agency page.",
		"Keep this one too.",
	}, "\n")

	got := newTestCleaner().Clean(raw)
	assert.Equal(t, "Keep this sentence.\nKeep this one too.", got)
}

func TestClean_RepeatedHeaders(t *testing.T) {
	raw := "Efficacy and Safety\nThe trial met its endpoint.\nRecommended Dosage\n240 mg orally twice daily"
	got := newTestCleaner().Clean(raw)
	assert.Equal(t, "The trial met its endpoint.\n240 mg orally twice daily", got)
}

func TestClean_UnicodeNormalization(t *testing.T) {
	raw := "Progression–free survival — the “primary” endpoint ‘overall’ −10%"
	got := newTestCleaner().Clean(raw)
	assert.Equal(t, `Progression-free survival - the "primary" endpoint 'overall' -10%`, got)
}

func TestClean_WhitespaceCollapse(t *testing.T) {
	raw := "Several    spaces   here.\nDosing schedule:\n\n\n\nNext paragraph."
	got := newTestCleaner().Clean(raw)
	assert.Equal(t, "Several spaces here.\nDosing schedule:\n\nNext paragraph.", got)
}

func TestClean_BlankLineKeptOnlyAfterColon(t *testing.T) {
	raw := "First.\n\nSecond.\nListed as follows:\n\nThird."
	got := newTestCleaner().Clean(raw)
	assert.Equal(t, "First.\nSecond.\nListed as follows:\n\nThird.", got)
}

func TestClean_Idempotent(t *testing.T) {
	raw := strings.Join([]string{
		"Approval was based on trial results.",
		"Efficacy and Safety",
		"The hazard ratio was 0.58.",
		"The recommended dose is 100 mg orally once daily.",
		"This review was conducted under Project Orbis.",
		"Marketing tail.",
	}, "\n")

	c := newTestCleaner()
	once := c.Clean(raw)
	assert.Equal(t, once, c.Clean(once))
}
