package memory

import (
	"context"

	"g1-quiz-service/internal/app"
	"g1-quiz-service/internal/domain"
)

// Entitlements is a static tier checker: practice is open to everyone
// (optionally capped for the free tier), simulation and review require a
// premium subscription. Webhook-driven entitlement updates live outside
// this service; the set of premium users arrives via configuration.
type Entitlements struct {
	premium         map[string]struct{}
	freePracticeCap int
}

func NewEntitlements(premiumUsers []string, freePracticeCap int) *Entitlements {
	premium := make(map[string]struct{}, len(premiumUsers))
	for _, u := range premiumUsers {
		premium[u] = struct{}{}
	}
	return &Entitlements{premium: premium, freePracticeCap: freePracticeCap}
}

func (e *Entitlements) CheckAccess(_ context.Context, userID, feature string) (domain.Access, error) {
	_, isPremium := e.premium[userID]

	switch feature {
	case app.FeaturePractice:
		access := domain.Access{Allowed: true}
		if !isPremium {
			access.MaxQuestions = e.freePracticeCap
		}
		return access, nil
	case app.FeatureSimulation, app.FeatureReview:
		if isPremium {
			return domain.Access{Allowed: true}, nil
		}
		return domain.Access{Reason: "premium subscription required"}, nil
	default:
		return domain.Access{Reason: "unknown feature"}, nil
	}
}
