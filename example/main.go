package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/tunaaoguzhann/glyphgate/core"
	"github.com/tunaaoguzhann/glyphgate/signs"
)

func main() {
	secretKey := "example-secret-key-0123456789abcdef"

	tokens, err := core.NewTokenService(core.TokenConfig{Secret: secretKey})
	if err != nil {
		log.Fatalf("Failed to create token service: %v", err)
	}

	token, err := tokens.Issue("user-123", "scribe@example.com")
	if err != nil {
		log.Fatalf("Failed to issue token: %v", err)
	}
	id, ok := tokens.Validate(token)
	if !ok {
		log.Fatalf("Freshly issued token did not validate")
	}
	fmt.Printf("Session token:\n")
	fmt.Printf("  Subject: %s\n", id.SubjectID)
	fmt.Printf("  Email: %s\n", id.Email)
	fmt.Printf("  Expires At: %s\n", id.ExpiresAt)

	verify, err := tokens.IssueVerification("scribe@example.com")
	if err != nil {
		log.Fatalf("Failed to issue verification token: %v", err)
	}
	if vid, ok := tokens.ValidateVerification(verify); ok {
		fmt.Printf("\nVerification token for %s expires at %s\n", vid.Email, vid.ExpiresAt)
	}

	limiter := core.NewMemoryRateLimiter(core.MemoryLimiterConfig{
		Policies: core.Policies{core.ClassSearch: {Window: time.Minute, Max: 3}},
	})
	fmt.Printf("\nSearch budget for 203.0.113.7:\n")
	for i := 1; i <= 4; i++ {
		res, err := limiter.Check(context.Background(), "203.0.113.7", core.ClassSearch)
		if err != nil {
			log.Fatalf("Rate limiter failed: %v", err)
		}
		if res.Allowed {
			fmt.Printf("  #%d allowed, %d remaining\n", i, res.Remaining)
		} else {
			fmt.Printf("  #%d denied, retry after %ds\n", i, res.RetryAfter)
		}
	}

	dict, err := signs.Default()
	if err != nil {
		log.Fatalf("Failed to load signs: %v", err)
	}
	fmt.Printf("\nTranslating \"the sun is good\":\n")
	for _, tok := range dict.Translate("the sun is good") {
		if tok.Sign != nil {
			fmt.Printf("  %-6s %s %s\n", tok.Word, tok.Sign.Glyph, tok.Sign.Code)
		} else {
			fmt.Printf("  %-6s -\n", tok.Word)
		}
	}
}
