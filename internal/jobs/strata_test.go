package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"yieldwatch/pkg/retry"
)

const (
	strataEgressURL = "https://egress.test/ip"
	strataStatsURL  = "https://stats.test/points/stats"
)

func strataConfig() StrataConfig {
	return StrataConfig{
		WalletAddress: "0xabc",
		StatsURL:      strataStatsURL,
		EgressURL:     strataEgressURL,
		Retry:         retry.Config{Attempts: 2, Delay: time.Millisecond},
	}
}

func TestStrata_CollectsBothPointValues(t *testing.T) {
	opener := newStubOpener(map[string]string{
		strataEgressURL: `{"origin": "198.51.100.7"}`,
		strataStatsURL + "?accountAddress=0xabc&season=1&chainId=1": `{
			"data": {
				"info": {"points": 123456},
				"account": {"points": {"total": "789.5"}}
			}
		}`,
	})

	job := Strata(opener, strataConfig())
	require.Equal(t, "02/01/2006", job.DateLayout)

	values, err := job.Collect(context.Background())
	require.NoError(t, err)
	require.Equal(t, []any{123456.0, 789.5}, values)
}

func TestStrata_MissingAccountPointsFails(t *testing.T) {
	opener := newStubOpener(map[string]string{
		strataEgressURL: `{"origin": "198.51.100.7"}`,
		strataStatsURL + "?accountAddress=0xabc&season=1&chainId=1": `{
			"data": {"info": {"points": 123456}, "account": {}}
		}`,
	})

	_, err := Strata(opener, strataConfig()).Collect(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "account points")
}

func TestStrata_EgressFailureAborts(t *testing.T) {
	// Egress endpoint missing from the stub: every check returns a 500.
	opener := newStubOpener(map[string]string{
		strataStatsURL + "?accountAddress=0xabc&season=1&chainId=1": `{"data":{}}`,
	})

	_, err := Strata(opener, strataConfig()).Collect(context.Background())
	require.Error(t, err)

	// Two egress attempts plus no stats fetch.
	require.Equal(t, int32(2), opener.fetches)
}
