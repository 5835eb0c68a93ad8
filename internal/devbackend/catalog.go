package devbackend

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"internify/internal/models"
)

// postingNamespace derives stable posting ids from title and company.
var postingNamespace = uuid.MustParse("6f1c2a7e-4b1d-4f0e-9a53-1f7e2c9b8d40")

// Catalog is a fixed set of postings searched by keyword.
type Catalog struct {
	postings []models.Posting
}

// NewCatalog builds a Catalog, assigning ids to postings that lack one.
func NewCatalog(postings []models.Posting) *Catalog {
	out := make([]models.Posting, len(postings))
	for i, p := range postings {
		if p.ID == "" {
			p.ID = PostingID(p.Title, p.Company)
		}
		out[i] = p
	}
	return &Catalog{postings: out}
}

// PostingID is the deterministic id of a seeded posting.
func PostingID(title, company string) string {
	return uuid.NewSHA1(postingNamespace, []byte(strings.ToLower(title+"|"+company))).String()
}

// Search returns postings whose title or description contains every role term,
// narrowed to location when given.
func (c *Catalog) Search(role, location string, limit int) []models.Posting {
	terms := strings.Fields(strings.ToLower(role))
	location = strings.ToLower(strings.TrimSpace(location))

	out := make([]models.Posting, 0, limit)
	for _, p := range c.postings {
		if limit > 0 && len(out) == limit {
			break
		}
		if !matchesAll(p.Title+" "+p.Description, terms) {
			continue
		}
		if location != "" && !strings.Contains(strings.ToLower(p.Location), location) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// ByCompany returns postings of company, optionally narrowed by role terms.
func (c *Catalog) ByCompany(company, role string) []models.Posting {
	terms := strings.Fields(strings.ToLower(role))
	out := []models.Posting{}
	for _, p := range c.postings {
		if !strings.EqualFold(strings.TrimSpace(p.Company), strings.TrimSpace(company)) {
			continue
		}
		if matchesAll(p.Title+" "+p.Description, terms) {
			out = append(out, p)
		}
	}
	return out
}

// Get returns the posting with id.
func (c *Catalog) Get(id string) (models.Posting, bool) {
	for _, p := range c.postings {
		if p.ID == id {
			return p, true
		}
	}
	return models.Posting{}, false
}

func matchesAll(text string, terms []string) bool {
	text = strings.ToLower(text)
	for _, t := range terms {
		if !strings.Contains(text, t) {
			return false
		}
	}
	return true
}

// DefaultPostings seeds the dev catalog.
func DefaultPostings() []models.Posting {
	posted := func(days int) *time.Time {
		t := time.Date(2025, time.June, 1, 9, 0, 0, 0, time.UTC).AddDate(0, 0, -days)
		return &t
	}
	return []models.Posting{
		{
			Title:        "Software Engineer Intern",
			Company:      "Acme Cloud",
			Location:     "Bangalore, India",
			Description:  "Build Go microservices and internal tooling with the platform team. Exposure to Kubernetes and PostgreSQL.",
			Link:         "https://jobs.example.com/acme-cloud/swe-intern",
			PostedAt:     posted(2),
			ContactEmail: "careers@acmecloud.example.com",
		},
		{
			Title:       "Backend Developer Intern",
			Company:     "Northwind Labs",
			Location:    "Remote, India",
			Description: "Design REST APIs, write tests and help migrate services from Python to Go.",
			Link:        "https://jobs.example.com/northwind/backend-intern",
			PostedAt:    posted(5),
		},
		{
			Title:          "Machine Learning Intern",
			Company:        "Quantum Ridge",
			Location:       "Hyderabad, India",
			Description:    "Train and evaluate NLP models. Python, PyTorch and experiment tracking.",
			Link:           "https://jobs.example.com/quantum-ridge/ml-intern",
			PostedAt:       posted(1),
			ContactEmail:   "talent@quantumridge.example.com",
			ContactWebsite: "https://quantumridge.example.com",
		},
		{
			Title:        "Frontend Engineer Intern",
			Company:      "Acme Cloud",
			Location:     "Pune, India",
			Description:  "Ship React and TypeScript features for the customer console.",
			Link:         "https://jobs.example.com/acme-cloud/frontend-intern",
			PostedAt:     posted(9),
			ContactEmail: "careers@acmecloud.example.com",
		},
		{
			Title:        "Data Analyst Intern",
			Company:      "Blue Harbor Finance",
			Location:     "Mumbai, India",
			Description:  "SQL reporting, dashboards and data quality checks for the lending team.",
			Link:         "https://jobs.example.com/blue-harbor/data-analyst-intern",
			PostedAt:     posted(3),
			ContactPhone: "+91 22 5555 0100",
		},
		{
			Title:       "DevOps Intern",
			Company:     "Northwind Labs",
			Location:    "Bangalore, India",
			Description: "Automate CI pipelines, container builds and infrastructure as code for Go services.",
			Link:        "https://jobs.example.com/northwind/devops-intern",
			PostedAt:    posted(4),
		},
		{
			Title:        "Product Design Intern",
			Company:      "Lumen Studio",
			Location:     "Delhi, India",
			Description:  "User research, wireframes and prototypes for a mobile banking app.",
			Link:         "https://jobs.example.com/lumen/design-intern",
			PostedAt:     posted(7),
			ContactEmail: "hello@lumenstudio.example.com",
		},
		{
			Title:       "Software Engineer Intern",
			Company:     "Tideway Systems",
			Location:    "Chennai, India",
			Description: "Work on distributed storage in Go and Rust with the core infrastructure group.",
			Link:        "https://jobs.example.com/tideway/swe-intern",
			PostedAt:    posted(6),
		},
	}
}
