package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestRecordProgressReport(t *testing.T) {
	before := testutil.ToFloat64(progressReports.WithLabelValues(ResultFailure))
	RecordProgressReport(ResultFailure)
	require.Equal(t, before+1, testutil.ToFloat64(progressReports.WithLabelValues(ResultFailure)))
}

func TestRecordEngagement(t *testing.T) {
	before := testutil.ToFloat64(engagementMutations.WithLabelValues("like", ResultRolledBack))
	RecordEngagement("like", ResultRolledBack)
	require.Equal(t, before+1, testutil.ToFloat64(engagementMutations.WithLabelValues("like", ResultRolledBack)))
}

func TestRecordTransition(t *testing.T) {
	before := testutil.ToFloat64(playbackTransitions.WithLabelValues("playing"))
	RecordTransition("playing")
	RecordCommentLoad(ResultStale)
	require.Equal(t, before+1, testutil.ToFloat64(playbackTransitions.WithLabelValues("playing")))
}
