package domain

import (
	"fmt"
	"strings"
)

// Language is the category a candidate campaigns in.
type Language string

const (
	// LanguageTswana is the Tswana category.
	LanguageTswana Language = "Tswana"

	// LanguageZulu is the Zulu category.
	LanguageZulu Language = "Zulu"
)

// Languages lists every accepted language, in display order.
var Languages = []Language{LanguageTswana, LanguageZulu}

// IsValid returns true if the language is part of the closed set.
func (l Language) IsValid() bool {
	switch l {
	case LanguageTswana, LanguageZulu:
		return true
	}
	return false
}

// ParseLanguage resolves a language name, ignoring case and surrounding space.
func ParseLanguage(s string) (Language, error) {
	s = strings.TrimSpace(s)
	for _, l := range Languages {
		if strings.EqualFold(string(l), s) {
			return l, nil
		}
	}
	return "", NewDomainError(ErrInvalidInput, fmt.Sprintf("unknown language %q", s), "language")
}

// Candidate is a person standing for election.
type Candidate struct {
	// ID is unique within the candidate set.
	ID int64 `json:"id"`

	// Name is the display name.
	Name string `json:"name"`

	// Language is the candidate's category.
	Language Language `json:"language"`

	// Votes only increases through a cast vote and is zeroed by an admin reset.
	Votes int64 `json:"votes"`

	// Bio is a short free-text description.
	Bio string `json:"bio"`
}

// NewCandidate creates a candidate with no votes.
func NewCandidate(id int64, name string, language Language, bio string) *Candidate {
	return &Candidate{
		ID:       id,
		Name:     name,
		Language: language,
		Bio:      bio,
	}
}

// ValidateCandidateInput checks the admin form fields for a new candidate.
func ValidateCandidateInput(name string, language Language, bio string) error {
	if strings.TrimSpace(name) == "" {
		return NewDomainError(ErrInvalidInput, "name is required", "name")
	}
	if strings.TrimSpace(bio) == "" {
		return NewDomainError(ErrInvalidInput, "bio is required", "bio")
	}
	if !language.IsValid() {
		return NewDomainError(ErrInvalidInput, fmt.Sprintf("unknown language %q", language), "language")
	}
	return nil
}

// InitialCandidates returns the roster seeded on first run.
func InitialCandidates() []Candidate {
	return []Candidate{
		{
			ID:       1,
			Name:     "Thabo Molefe",
			Language: LanguageTswana,
			Bio:      "Champion for local education and Tswana heritage preservation.",
		},
		{
			ID:       2,
			Name:     "Kagiso Mpho",
			Language: LanguageTswana,
			Bio:      "Advocating for sustainable agriculture and rural development.",
		},
		{
			ID:       3,
			Name:     "Sibusiso Dlamini",
			Language: LanguageZulu,
			Bio:      "Focused on urban infrastructure and Zulu cultural outreach.",
		},
		{
			ID:       4,
			Name:     "Nokuthula Zungu",
			Language: LanguageZulu,
			Bio:      "Dedicated to women's empowerment and small business grants.",
		},
	}
}
