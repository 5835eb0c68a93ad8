package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
)

// Registry holds the dev backend's outreach counters.
type Registry struct {
	draftsGenerated atomic.Uint64
	draftsFailed    atomic.Uint64
	emailsSent      atomic.Uint64
	resumesUploaded atomic.Uint64

	draftDuration *histogram
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{
		draftDuration: newHistogram([]float64{50, 100, 250, 500, 1000, 2000, 5000, 10000, 30000}),
	}
}

// ObserveDraft records one drafting attempt and how long it took.
func (r *Registry) ObserveDraft(d time.Duration, err error) {
	if err != nil {
		r.draftsFailed.Add(1)
	} else {
		r.draftsGenerated.Add(1)
	}
	ms := float64(d) / float64(time.Millisecond)
	if ms < 0 {
		ms = 0
	}
	r.draftDuration.Observe(ms)
}

func (r *Registry) IncEmailsSent() { r.emailsSent.Add(1) }

func (r *Registry) IncResumesUploaded() { r.resumesUploaded.Add(1) }

// Handler exposes metrics in Prometheus text format.
func (r *Registry) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Type", "text/plain; version=0.0.4")
		c.String(http.StatusOK, r.Render())
	}
}

// Render renders metrics in Prometheus text format.
func (r *Registry) Render() string {
	var buf bytes.Buffer
	writeCounter(&buf, "drafts_generated_total", "Email drafts generated", r.draftsGenerated.Load())
	writeCounter(&buf, "drafts_failed_total", "Email drafts that failed", r.draftsFailed.Load())
	writeCounter(&buf, "emails_sent_total", "Outreach emails sent", r.emailsSent.Load())
	writeCounter(&buf, "resumes_uploaded_total", "Resumes uploaded", r.resumesUploaded.Load())
	writeHistogram(&buf, "draft_duration_ms", "Draft generation duration in milliseconds", r.draftDuration.Snapshot())
	return buf.String()
}

type histogram struct {
	mu      sync.Mutex
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

type histogramSnapshot struct {
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

func newHistogram(buckets []float64) *histogram {
	return &histogram{
		buckets: buckets,
		counts:  make([]uint64, len(buckets)),
	}
}

// Observe counts value in the first bucket whose bound holds it; Render accumulates.
func (h *histogram) Observe(value float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.count++
	h.sum += value
	for i, bound := range h.buckets {
		if value <= bound {
			h.counts[i]++
			return
		}
	}
}

func (h *histogram) Snapshot() histogramSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	return histogramSnapshot{
		buckets: append([]float64(nil), h.buckets...),
		counts:  append([]uint64(nil), h.counts...),
		sum:     h.sum,
		count:   h.count,
	}
}

func writeCounter(buf *bytes.Buffer, name, help string, value uint64) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", name)
	fmt.Fprintf(buf, "%s %d\n", name, value)
}

func writeHistogram(buf *bytes.Buffer, name, help string, snap histogramSnapshot) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s histogram\n", name)
	var cumulative uint64
	for i, bound := range snap.buckets {
		cumulative += snap.counts[i]
		fmt.Fprintf(buf, "%s_bucket{le=\"%s\"} %d\n", name, formatFloat(bound), cumulative)
	}
	fmt.Fprintf(buf, "%s_bucket{le=\"+Inf\"} %d\n", name, snap.count)
	fmt.Fprintf(buf, "%s_sum %s\n", name, formatFloat(snap.sum))
	fmt.Fprintf(buf, "%s_count %d\n", name, snap.count)
}

func formatFloat(value float64) string {
	if value == float64(int64(value)) {
		return strconv.FormatInt(int64(value), 10)
	}
	return strconv.FormatFloat(value, 'f', -1, 64)
}
