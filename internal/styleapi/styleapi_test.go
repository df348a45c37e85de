package styleapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nhoinets2/scan-match-sub001/internal/outfit"
	"github.com/nhoinets2/scan-match-sub001/pkg/config"
)

func endpoint(serverURL string) config.ServiceEndpoint {
	return config.ServiceEndpoint{BaseURL: serverURL, Timeout: 2 * time.Second}
}

func TestScorerEvaluatePairs(t *testing.T) {
	var gotPath string
	var gotBody map[string]interface{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		json.NewEncoder(w).Encode(map[string]interface{}{
			"evaluations": []outfit.PairEvaluation{
				{ScanItemID: "scan-1", ItemID: "b1", PairType: "tops_bottoms", Score: 0.9, Tier: outfit.TierHigh},
			},
		})
	}))
	defer server.Close()

	client := NewScorerClient(endpoint(server.URL))
	evals, err := client.EvaluatePairs(context.Background(),
		outfit.ScanItem{Item: outfit.Item{ID: "scan-1", Category: outfit.CategoryTops}},
		[]outfit.Item{{ID: "b1", Category: outfit.CategoryBottoms}},
		true,
	)

	require.NoError(t, err)
	require.Equal(t, "/v1/pairs/evaluate", gotPath)
	require.Len(t, evals, 1)
	require.Equal(t, outfit.TierHigh, evals[0].Tier)

	// include_low 随请求透传
	options, ok := gotBody["options"].(map[string]interface{})
	require.True(t, ok)
	require.Equal(t, true, options["include_low"])
}

func TestScorerNon200(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model overloaded", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewScorerClient(endpoint(server.URL))
	_, err := client.EvaluatePairs(context.Background(), outfit.ScanItem{}, nil, false)

	require.Error(t, err)
	require.Contains(t, err.Error(), "status=503")
}

func TestTrustFilterIndexesDecisions(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/trust/filter", r.URL.Path)

		json.NewEncoder(w).Encode(trustFilterResponse{
			Decisions: []outfit.TrustDecision{
				{ItemID: "b1", Action: outfit.TrustKeep},
				{ItemID: "s1", Action: outfit.TrustDemoteToNear},
			},
			Stats: outfit.TrustStats{Kept: 1, Demoted: 1},
		})
	}))
	defer server.Close()

	client := NewTrustClient(endpoint(server.URL))
	outcome, err := client.FilterTrust(context.Background(),
		outfit.ScanItem{Item: outfit.Item{ID: "scan-1", Category: outfit.CategoryTops}},
		[]TrustItem{
			{Item: outfit.Item{ID: "b1", Category: outfit.CategoryBottoms}, Score: 0.9},
			{Item: outfit.Item{ID: "s1", Category: outfit.CategoryShoes}, Score: 0.8},
		},
	)

	require.NoError(t, err)
	require.Len(t, outcome.Decisions, 2)
	require.Equal(t, outfit.TrustDemoteToNear, outcome.Decisions["s1"].Action)
	require.Equal(t, 1, outcome.Stats.Demoted)
}

func TestSignalsNotFoundMeansNoSignals(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	client := NewSignalsClient(config.SignalsEndpoint{BaseURL: server.URL, Timeout: 2 * time.Second})
	signals, err := client.GetSignals(context.Background(), "item-without-signals")

	require.NoError(t, err)
	require.Nil(t, signals)
}

func TestSignalsFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/signals/item-1", r.URL.Path)

		json.NewEncoder(w).Encode(outfit.StyleSignals{
			Archetypes: []string{"street"},
			Statement:  outfit.StatementHigh,
		})
	}))
	defer server.Close()

	client := NewSignalsClient(config.SignalsEndpoint{BaseURL: server.URL, Timeout: 2 * time.Second})
	signals, err := client.GetSignals(context.Background(), "item-1")

	require.NoError(t, err)
	require.NotNil(t, signals)
	require.Equal(t, outfit.StatementHigh, signals.Statement)
}

func TestSafetyCheckEchoesAttemptKey(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/safety/check", r.URL.Path)

		var req SafetyCheckRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		json.NewEncoder(w).Encode(SafetyCheckResponse{
			AttemptKey:      req.AttemptKey,
			EffectiveDryRun: false,
			Verdicts: []outfit.SafetyVerdict{
				{ItemID: "b1", Action: outfit.SafetyDemote, ReasonCode: "SP-104"},
			},
		})
	}))
	defer server.Close()

	client := NewSafetyClient(endpoint(server.URL))
	resp, err := client.Check(context.Background(), &SafetyCheckRequest{
		AttemptKey:    "scan-rec-1:abcd1234:sp-2025.3",
		PolicyVersion: "sp-2025.3",
		Items: []SafetyCheckItem{
			{ItemID: "b1", PairType: "tops_bottoms"},
		},
	})

	require.NoError(t, err)
	require.Equal(t, "scan-rec-1:abcd1234:sp-2025.3", resp.AttemptKey)
	require.Len(t, resp.Verdicts, 1)
	require.Equal(t, "b1", resp.Verdicts[0].ItemID)
	require.Equal(t, outfit.SafetyDemote, resp.Verdicts[0].Action)
}
