package clean

import "regexp"

// cutoffPatterns mark the end of useful content. When one matches a line
// the line and everything after it is dropped, unless dosage information
// follows within the lookahead window.
var cutoffPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)This review.*used.*Assessment Aid`),
	regexp.MustCompile(`(?i)This review was conducted.*Assessment Aid`),
	regexp.MustCompile(`(?i)This review used.*Real-Time Oncology Review`),
	regexp.MustCompile(`(?i)This review used.*RTOR`),
	regexp.MustCompile(`(?i)This review was conducted under Project Orbis`),
	regexp.MustCompile(`(?i)The application was granted.*priority review`),
	regexp.MustCompile(`(?i)The application was granted.*breakthrough`),
	regexp.MustCompile(`(?i)The application was granted.*orphan`),
	regexp.MustCompile(`(?i)granted.*priority review`),
	regexp.MustCompile(`(?i)granted.*breakthrough designation`),
	regexp.MustCompile(`(?i)granted.*orphan drug designation`),
	regexp.MustCompile(`(?i)received.*orphan drug designation`),
	regexp.MustCompile(`(?i)received.*breakthrough designation`),
	regexp.MustCompile(`(?i)received.*priority review`),
}

// boilerplatePatterns remove single lines. All are anchored at the start
// of the line so that sentences merely containing these phrases survive;
// dosage lines like "Less than 50 kg: 120 mg" must never be caught here.
var boilerplatePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^Follow the Oncology Center of Excellence`),
	regexp.MustCompile(`(?i)^Follow us on X`),
	regexp.MustCompile(`(?i)^Healthcare professionals should report all serious adverse events`),
	regexp.MustCompile(`(?i)^Full prescribing information for\s+`),
	regexp.MustCompile(`(?i)^View full prescribing information for\s+`),
	regexp.MustCompile(`(?i)^See full prescribing information for\s+`),
	regexp.MustCompile(`(?i)^For assistance with single-patient INDs for investigational oncology products`),
	regexp.MustCompile(`(?i)^FDA expedited programs are described in the Guidance`),
	regexp.MustCompile(`(?i)^A description of FDA expedited programs is in the Guidance`),
	regexp.MustCompile(`(?i)^For information on the COVID-19 pandemic`),
	regexp.MustCompile(`(?i)^FDA: Coronavirus Disease 2019 \(COVID-19\)`),
	regexp.MustCompile(`(?i)^CDC: Coronavirus \(COVID-19\)`),
}

// dosagePatterns recognize dosing lines. A cutoff match is suppressed
// when one of these appears downstream, because dosing text after the
// boilerplate is still useful content.
var dosagePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\d+\s*(kg|mg|g|mcg)`),
	regexp.MustCompile(`(?i)less than.*\d+`),
	regexp.MustCompile(`(?i)greater than.*\d+`),
	regexp.MustCompile(`(?i)\d+\s*(or|and)\s*(greater|less)`),
	regexp.MustCompile(`(?i)orally.*twice.*daily`),
	regexp.MustCompile(`(?i)orally.*once.*daily`),
	regexp.MustCompile(`(?i)mg.*orally`),
}

// repeatedHeaders are dropped when they appear as standalone lines.
var repeatedHeaders = map[string]bool{
	"Efficacy and Safety": true,
	"Recommended Dosage":  true,
	"Expedited Programs":  true,
}

// unicodeReplacements fold typographic dashes and quotes to ASCII.
var unicodeReplacements = [][2]string{
	{"–", "-"},  // en dash
	{"—", "-"},  // em dash
	{"−", "-"},  // minus sign
	{"‘", "'"},  // left single quote
	{"’", "'"},  // right single quote
	{"“", `"`},  // left double quote
	{"”", `"`},  // right double quote
}

var (
	multiSpace   = regexp.MustCompile(` +`)
	multiNewline = regexp.MustCompile(`\n{3,}`)
)
