package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// versionsAppended counts ledger entries by origin (seed, update, restore).
	versionsAppended = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kb_article_versions_appended_total",
		Help: "Article versions appended to the ledger",
	}, []string{"origin"})

	// versionConflicts counts duplicate version numbers hit by concurrent writers.
	versionConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kb_article_version_conflicts_total",
		Help: "Version number conflicts that triggered a retry",
	})

	versionConflictsExhausted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kb_article_version_conflicts_exhausted_total",
		Help: "Article writes that failed after exhausting the retry budget",
	})

	identityLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kb_identity_lookups_total",
		Help: "Bearer credential resolutions by result",
	}, []string{"result"})
)
