package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/communehq/membersearch/ai"
	"github.com/communehq/membersearch/ai/mock"
	"github.com/communehq/membersearch/ai/openai"
	"github.com/communehq/membersearch/core"
	"github.com/communehq/membersearch/rank"
	badgerstore "github.com/communehq/membersearch/storage/badger"
)

// Demo directory for a fictional alumni and business community. Every record
// carries enough structure to exercise each filter the ranker supports.
var members = []*core.MemberRecord{
	{
		Name:           "Asha Raman",
		Type:           core.MemberTypeEntrepreneur,
		Location:       "chennai",
		Organization:   "Kaveri Analytics",
		Skills:         []string{"machine learning", "data engineering", "python"},
		Services:       []string{"ai consulting"},
		Degree:         "B.Tech",
		Branch:         "Computer Science",
		GraduationYear: 2012,
		TurnoverINR:    8_00_00_000,
		ProfileText:    "Founder of Kaveri Analytics in Chennai. Builds machine learning and data engineering solutions for retail and logistics clients.",
	},
	{
		Name:         "Bala Krishnan",
		Type:         core.MemberTypeEntrepreneur,
		Location:     "madurai",
		Organization: "Meenakshi Caterers",
		Services:     []string{"catering", "event management"},
		TurnoverINR:  2_00_00_000,
		ProfileText:  "Runs Meenakshi Caterers in Madurai. Full-service catering and event management for weddings and corporate functions.",
	},
	{
		Name:           "Charu Venkatesh",
		Type:           core.MemberTypeAlumni,
		Location:       "coimbatore",
		Organization:   "Lakshmi Mills",
		Skills:         []string{"textile engineering", "supply chain"},
		Degree:         "MBA",
		Branch:         "Operations",
		GraduationYear: 2015,
		ProfileText:    "Operations head at Lakshmi Mills, Coimbatore. MBA batch of 2015 with a background in textile engineering and supply chain.",
	},
	{
		Name:           "Deepak Nair",
		Type:           core.MemberTypeGeneric,
		Location:       "bengaluru",
		Organization:   "Nila Software",
		Skills:         []string{"golang", "distributed systems", "kubernetes"},
		Services:       []string{"software consulting"},
		Degree:         "M.Tech",
		Branch:         "Computer Science",
		GraduationYear: 2010,
		ProfileText:    "Principal engineer at Nila Software in Bengaluru. Consults on Go backends, distributed systems, and Kubernetes platforms.",
	},
	{
		Name:         "Ezhil Arasi",
		Type:         core.MemberTypeEntrepreneur,
		Location:     "karur",
		Organization: "Arasi Handlooms",
		Services:     []string{"handloom weaving", "textile export"},
		TurnoverINR:  60_00_000,
		ProfileText:  "Third-generation handloom weaver in Karur exporting home textiles across South Asia.",
	},
	{
		Name:        "Farida Begum",
		Type:        core.MemberTypeResident,
		Location:    "chennai",
		Skills:      []string{"interior design", "vastu consulting"},
		Services:    []string{"interior design"},
		ProfileText: "Interior designer in Chennai specialising in residential projects and vastu-aligned layouts.",
	},
	{
		Name:           "Ganesh Iyer",
		Type:           core.MemberTypeAlumni,
		Location:       "mumbai",
		Organization:   "Iyer & Associates",
		Skills:         []string{"chartered accountancy", "taxation"},
		Services:       []string{"audit", "tax filing"},
		Degree:         "B.Com",
		GraduationYear: 2008,
		ProfileText:    "Chartered accountant in Mumbai handling audits, taxation, and compliance for small businesses.",
	},
	{
		Name:         "Hema Subramanian",
		Type:         core.MemberTypeEntrepreneur,
		Location:     "coimbatore",
		Organization: "Siruvani Organics",
		Services:     []string{"organic farming", "food processing"},
		TurnoverINR:  5_00_00_000,
		ProfileText:  "Founder of Siruvani Organics near Coimbatore. Grows and processes organic produce for urban retail chains.",
	},
	{
		Name:           "Imran Sheikh",
		Type:           core.MemberTypeGeneric,
		Location:       "hyderabad",
		Organization:   "Deccan Legal",
		Skills:         []string{"corporate law", "contract drafting"},
		Services:       []string{"legal advisory"},
		Degree:         "LLB",
		GraduationYear: 2013,
		ProfileText:    "Corporate lawyer in Hyderabad advising startups on contracts, incorporation, and compliance.",
	},
	{
		Name:           "Janani Pillai",
		Type:           core.MemberTypeAlumni,
		Location:       "chennai",
		Organization:   "Marina Robotics",
		Skills:         []string{"robotics", "embedded systems", "ai"},
		Degree:         "B.Tech",
		Branch:         "Mechatronics",
		GraduationYear: 2018,
		ProfileText:    "Robotics engineer at Marina Robotics, Chennai. Works on embedded control systems and applied AI for warehouse automation.",
	},
}

var (
	dbPath         = flag.String("db", "./data", "path to the database directory")
	tenant         = flag.String("tenant", "demo", "tenant to seed")
	useMock        = flag.Bool("mock", false, "use deterministic mock embeddings instead of a live model")
	embeddingHost  = flag.String("embedding-host", "http://localhost:11434/v1", "OpenAI-compatible embedding endpoint")
	embeddingModel = flag.String("embedding-model", "embeddinggemma", "embedding model name")
)

func init() {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	slog.SetDefault(slog.New(handler))
	flag.Parse()
}

func newEmbedder() (ai.Embedder, func() error, error) {
	if *useMock {
		return mock.NewMockEmbedder(), func() error { return nil }, nil
	}
	provider, err := openai.NewProvider(ai.NewConfig(
		ai.WithEmbeddingHost(*embeddingHost),
		ai.WithEmbeddingModel(*embeddingModel),
	))
	if err != nil {
		return nil, nil, err
	}
	return provider.Embedder(), provider.Close, nil
}

// skillsText flattens the skill and service lists into the text embedded as
// the skills vector.
func skillsText(m *core.MemberRecord) string {
	parts := append(append([]string{}, m.Skills...), m.Services...)
	if len(parts) == 0 {
		return m.ProfileText
	}
	return strings.Join(parts, ", ")
}

func main() {
	backend, err := badgerstore.OpenBackend(*dbPath, false)
	if err != nil {
		panic(err)
	}
	defer backend.Close()

	repo, err := badgerstore.NewMemberRepository(backend)
	if err != nil {
		panic(err)
	}

	embedder, closeEmbedder, err := newEmbedder()
	if err != nil {
		panic(err)
	}
	defer closeEmbedder()

	ctx := context.Background()
	now := time.Now()

	records := make([]*core.MemberRecord, len(members))
	profileTexts := make([]string, len(members))
	skillTexts := make([]string, len(members))
	for i, m := range members {
		record := *m
		record.TenantId = core.TenantID(*tenant)
		record.CreatedAt = now
		record.UpdatedAt = now
		records[i] = &record
		profileTexts[i] = record.ProfileText
		skillTexts[i] = skillsText(&record)
	}

	if err := repo.PutMembers(ctx, records...); err != nil {
		panic(err)
	}

	profileVecs, err := embedder.EmbedTexts(ctx, profileTexts)
	if err != nil {
		panic(err)
	}
	skillVecs, err := embedder.EmbedTexts(ctx, skillTexts)
	if err != nil {
		panic(err)
	}

	embeddings := make([]*core.EmbeddingRecord, len(records))
	for i, record := range records {
		embeddings[i] = &core.EmbeddingRecord{
			MemberId:      record.Id,
			TenantId:      record.TenantId,
			ModelVersion:  *embeddingModel,
			ProfileVector: profileVecs[i],
			SkillsVector:  skillVecs[i],
			Keywords: rank.ProfileKeywords(
				record.ProfileText, record.Name, record.Location,
				record.Organization, record.Degree, record.Branch,
			),
			ProfileTextLen: int64(len(record.ProfileText)),
			UpdatedAt:      now,
		}
	}

	if err := repo.PutEmbeddings(ctx, embeddings...); err != nil {
		panic(err)
	}

	slog.Info("seeded demo directory", "tenant", *tenant, "members", len(records))
}
