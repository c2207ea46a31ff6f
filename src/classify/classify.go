// Package classify assigns a taxonomy category to a transaction. The remote
// classifier asks an LLM; any failure there degrades to the deterministic
// keyword classifier, so callers never see an error on this path.
package classify

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strings"

	"finance-app-server/src/category"
	"finance-app-server/src/llm"
)

type Input struct {
	Name        string
	Amount      float64
	Date        string
	Description string
}

type Classifier interface {
	Classify(ctx context.Context, in Input) string
}

// categoryRule maps a taxonomy label to its keyword pattern. Order matters:
// the first matching rule wins, so more specific labels come first.
type categoryRule struct {
	category string
	pattern  *regexp.Regexp
}

var rules = []categoryRule{
	{"Housing", regexp.MustCompile(`rent|mortgage|property|real estate|apartment|housing|landlord|lease|condo|hoa`)},
	{"Transportation", regexp.MustCompile(`uber|lyft|taxi|car|auto|gas|fuel|transit|train|bus|subway|metro|toll|parking`)},
	{"Food", regexp.MustCompile(`grocery|restaurant|coffee|food|dining|doordash|grubhub|ubereats|meal|cafe|diner|pizza|burger|bakery`)},
	{"Utilities", regexp.MustCompile(`electricity|water|power|utility|internet|cable|phone|cell|mobile|telecom|broadband`)},
	{"Insurance", regexp.MustCompile(`insurance|policy|premium|coverage|protect`)},
	{"Healthcare", regexp.MustCompile(`doctor|medical|health|hospital|clinic|pharmacy|prescription|dental|optical|therapy|healthcare`)},
	{"Debt Payments", regexp.MustCompile(`loan|credit card|debt|interest|student loan|finance charge`)},
	{"Entertainment", regexp.MustCompile(`movie|entertainment|game|music|concert|theater|netflix|spotify|hulu|disney|streaming|subscription`)},
	{"Shopping", regexp.MustCompile(`amazon|walmart|target|store|mall|shop|retail|clothing|apparel|merchandise|purchase|online`)},
	{"Personal Care", regexp.MustCompile(`salon|spa|haircut|beauty|gym|fitness|personal care|cosmetic|makeup`)},
	{"Education", regexp.MustCompile(`tuition|school|college|university|class|course|education|book|student|learning`)},
	{"Travel", regexp.MustCompile(`travel|flight|airline|hotel|vacation|airbnb|booking|trip|lodging`)},
	{"Gifts & Donations", regexp.MustCompile(`gift|charity|donation|present|donate`)},
	{"Income", regexp.MustCompile(`payroll|salary|deposit|income|wage|earning|revenue|transfer`)},
}

// Local is the deterministic keyword classifier. It is total: every input
// maps to a taxonomy label.
type Local struct{}

func (Local) Classify(_ context.Context, in Input) string {
	text := strings.ToLower(in.Name + " " + in.Description)

	for _, r := range rules {
		if r.pattern.MatchString(text) {
			return r.category
		}
	}

	// Negative amounts are inflows by the feed's sign convention.
	if in.Amount < 0 || strings.Contains(text, "payment received") {
		return "Income"
	}

	return "Other"
}

// Remote asks the LLM for a label, falling back to Local when the call
// fails or the reply is not a taxonomy label.
type Remote struct {
	llm      *llm.Client
	fallback Local
}

func NewRemote(client *llm.Client) *Remote {
	return &Remote{llm: client}
}

func (r *Remote) Classify(ctx context.Context, in Input) string {
	prompt := fmt.Sprintf(
		"Classify this bank transaction into exactly one of these categories: %s.\n"+
			"Respond with the category name only.\n"+
			"Name: %s\nAmount: %.2f\nDate: %s\nDescription: %s",
		strings.Join(category.Taxonomy, ", "), in.Name, in.Amount, in.Date, in.Description)

	answer, err := r.llm.Ask(ctx, prompt)
	if err != nil {
		log.Printf("ERROR: LLM classification failed for %q, using local fallback: %v", in.Name, err)
		return r.fallback.Classify(ctx, in)
	}

	answer = strings.Trim(answer, `"' .`)
	if !category.InTaxonomy(answer) {
		log.Printf("ERROR: LLM returned non-taxonomy category %q for %q, using local fallback", answer, in.Name)
		return r.fallback.Classify(ctx, in)
	}

	return answer
}
