package usecase

import (
	"fmt"

	"github.com/complyon/kyc-pipeline/internal/config"
	"github.com/complyon/kyc-pipeline/internal/core/domain"
)

// Router is the pure routing decision function. Quality failures always
// dominate risk-based routing; first match wins.
type Router struct {
	minCompleteness float64
}

func NewRouter(policy config.QualityPolicy) *Router {
	return &Router{minCompleteness: policy.MinCompleteness}
}

func (r *Router) Decide(quality domain.QualityReport, risk domain.RiskProfile) domain.RoutingDecision {
	if quality.CompletenessScore < r.minCompleteness {
		return domain.RoutingDecision{
			Route: domain.RouteErrorResolution,
			Reason: fmt.Sprintf(
				"completeness %.1f%% below required %.1f%%",
				quality.CompletenessScore, r.minCompleteness,
			),
		}
	}
	if len(quality.ConsistencyIssues) > 0 {
		return domain.RoutingDecision{
			Route:  domain.RouteErrorResolution,
			Reason: quality.ConsistencyIssues[0],
		}
	}

	switch risk.RiskLevel {
	case domain.RiskHigh:
		return domain.RoutingDecision{
			Route:  domain.RouteManualReview,
			Reason: fmt.Sprintf("risk level HIGH (score %.1f)", risk.RiskScore),
		}
	case domain.RiskMedium:
		return domain.RoutingDecision{
			Route:  domain.RouteAdditionalVerification,
			Reason: fmt.Sprintf("risk level MEDIUM (score %.1f)", risk.RiskScore),
		}
	default:
		return domain.RoutingDecision{
			Route:  domain.RouteAutoApprove,
			Reason: fmt.Sprintf("risk level LOW (score %.1f)", risk.RiskScore),
		}
	}
}
