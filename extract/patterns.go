package extract

import "regexp"

// Pattern groups for intent classification. Document-style and member-style
// groups are evaluated independently; matching both yields the hybrid intent.
var (
	documentPatterns = []*regexp.Regexp{
		regexp.MustCompile(`^\s*what(?:'?s| is| are)\b`),
		regexp.MustCompile(`^\s*how (?:do|can|should) (?:i|we)\b`),
		regexp.MustCompile(`\b(?:policy|policies|rule|rules|procedure|procedures|guideline|guidelines|bylaw|bylaws|regulation|regulations)\b`),
	}

	memberVerbPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\b(?:find|search|looking for|look for|who has|who knows|connect me|recommend|suggest|need a|need an|any)\b`),
	}

	memberNounPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\b(?:expert|experts|member|members|alumni|entrepreneur|entrepreneurs|business|businesses|founder|founders|developer|developers|consultant|consultants|doctor|doctors|lawyer|lawyers|architect|architects|designer|designers|resident|residents|professional|professionals)\b`),
	}

	greetingPattern = regexp.MustCompile(`^\s*(?:hi|hii+|hello|hey|namaste|vanakkam|good (?:morning|afternoon|evening)|thanks|thank you|ok|okay|bye)\b[\s!.]*$`)
)

// defaultCities is the built-in gazetteer. TenantContext.ExtraCities extends
// it per community.
var defaultCities = []string{
	"chennai",
	"bangalore",
	"bengaluru",
	"mumbai",
	"delhi",
	"hyderabad",
	"pune",
	"kolkata",
	"coimbatore",
	"madurai",
	"trichy",
	"salem",
	"kochi",
	"ahmedabad",
	"jaipur",
	"gurgaon",
	"noida",
	"vellore",
	"erode",
	"tirupur",
}

// defaultSkills is the built-in skill vocabulary, ordered so extraction output
// stays deterministic. Multi-word terms must precede their single-word
// substrings.
var defaultSkills = []string{
	"machine learning",
	"data science",
	"artificial intelligence",
	"web development",
	"app development",
	"software development",
	"digital marketing",
	"ai",
	"ml",
	"marketing",
	"finance",
	"accounting",
	"law",
	"design",
	"photography",
	"software",
	"cloud",
	"cybersecurity",
	"sales",
	"hr",
	"analytics",
	"blockchain",
	"robotics",
}

// defaultServices is the built-in service vocabulary.
var defaultServices = []string{
	"legal advice",
	"interior design",
	"real estate",
	"event management",
	"manufacturing",
	"catering",
	"consulting",
	"printing",
	"logistics",
	"exports",
	"textiles",
	"construction",
	"insurance",
	"tutoring",
	"healthcare",
}

// defaultDegrees is the built-in degree/qualification vocabulary.
var defaultDegrees = []string{
	"b.tech",
	"btech",
	"m.tech",
	"mtech",
	"mbbs",
	"mba",
	"bba",
	"b.com",
	"bcom",
	"m.com",
	"llb",
	"llm",
	"phd",
	"ca",
}

func matchCount(patterns []*regexp.Regexp, text string) int {
	count := 0
	for _, p := range patterns {
		if p.MatchString(text) {
			count++
		}
	}
	return count
}
