package vm

import (
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff"

	"github.com/rtm0/eos/internal/scan"
)

// Client is a Victoria Metrics client capable of inserting scanned grid
// records via various protocols.
type Client struct {
	logger       *slog.Logger
	httpCli      *http.Client
	insertURL    string
	layeredURL   string
	metricPrefix string
	metrics      []string
	recToText    recToTextFunc
	retries      uint64
	newBackOff   func() backoff.BackOff
}

const metricPrefixRE = "^[a-zA-Z0-9]+$"

var nonMetricChars = regexp.MustCompile("[^a-zA-Z0-9_]+")

// MetricName turns a field name into a metric name.
func MetricName(field string) string {
	return strings.Trim(nonMetricChars.ReplaceAllString(field, "_"), "_")
}

// NewClient creates a new VM client. Every record inserted must carry one
// value per metric. A failed insert is retried up to retries times.
func NewClient(logger *slog.Logger, insertURL string, maxConns int, metricPrefix string, metrics []string, retries int) (*Client, error) {
	url, err := url.Parse(insertURL)
	if err != nil {
		return nil, err
	}

	matches, err := regexp.Match(metricPrefixRE, []byte(metricPrefix))
	if err != nil {
		return nil, err
	}
	if !matches {
		return nil, fmt.Errorf("metric prefix %q does not match %q regular expression", metricPrefix, metricPrefixRE)
	}
	if len(metrics) == 0 {
		return nil, fmt.Errorf("no metrics to insert")
	}
	names := make([]string, len(metrics))
	for i, m := range metrics {
		names[i] = MetricName(m)
	}

	apiParams := apiParamsFuncs[url.Path]
	if apiParams == nil {
		return nil, fmt.Errorf("inserting into %q is not supported", insertURL)
	}
	withParams := func(layered bool) string {
		u := *url
		q := u.Query()
		for name, value := range apiParams(metricPrefix, names, layered) {
			q.Add(name, value)
		}
		u.RawQuery = q.Encode()
		return u.String()
	}

	recToText := recToTextFuncs[url.Path]
	if recToText == nil {
		return nil, fmt.Errorf("inserting into %q is not supported", insertURL)
	}
	if retries < 0 {
		retries = 0
	}

	return &Client{
		logger: logger,
		httpCli: &http.Client{
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout:   30 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				MaxIdleConns:        maxConns,
				IdleConnTimeout:     30 * time.Second,
				MaxIdleConnsPerHost: maxConns,
				MaxConnsPerHost:     maxConns,
			},
		},
		insertURL:    withParams(false),
		layeredURL:   withParams(true),
		metricPrefix: metricPrefix,
		metrics:      names,
		recToText:    recToText,
		retries:      uint64(retries),
		newBackOff:   func() backoff.BackOff { return backoff.NewExponentialBackOff() },
	}, nil
}

// Insert inserts records into Victoria Metrics, retrying with exponential
// backoff. Records of one insert are either all layered or all unlayered.
// Requests the server rejects as malformed are not retried.
func (c *Client) Insert(recs []scan.Record) error {
	url := c.insertURL
	if len(recs) > 0 && recs[0].Layer >= 0 {
		url = c.layeredURL
	}
	body := recsToText(recs, c.metricPrefix, c.metrics, c.recToText)
	return backoff.RetryNotify(
		func() error { return c.post(url, body) },
		backoff.WithMaxRetries(c.newBackOff(), c.retries),
		func(err error, d time.Duration) {
			c.logger.Warn("Insert failed, retrying", "err", err, "in", d)
		},
	)
}

func (c *Client) post(url, body string) error {
	res, err := c.httpCli.Post(url, "text/plain", strings.NewReader(body))
	if err != nil {
		return fmt.Errorf("could not post data: %w", err)
	}
	defer res.Body.Close()
	if _, err := io.Copy(io.Discard, res.Body); err != nil {
		c.logger.Error("Failed to drain response body", "err", err)
	}
	if res.StatusCode != http.StatusNoContent {
		err := fmt.Errorf("unexpected status %d", res.StatusCode)
		if !retryable(res.StatusCode) {
			return backoff.Permanent(err)
		}
		return err
	}
	return nil
}

// retryable reports whether a request answered with status may succeed
// when sent again.
func retryable(status int) bool {
	switch status {
	case http.StatusRequestTimeout, http.StatusTooManyRequests:
		return true
	}
	return status < 400 || status >= 500
}

type apiParamsFunc func(metricPrefix string, metrics []string, layered bool) map[string]string

var apiParamsFuncs = map[string]apiParamsFunc{
	"/influx/write":        influxDBAPIParams,
	"/influx/api/v2/write": influxDBAPIParams,
	"/write":               influxDBAPIParams,
	"/api/v2/write":        influxDBAPIParams,
	"/api/v1/import/csv":   csvAPIParams,
}

func influxDBAPIParams(string, []string, bool) map[string]string {
	return nil
}

// csvAPIParams describes the CSV columns written by recToCSV.
func csvAPIParams(metricPrefix string, metrics []string, layered bool) map[string]string {
	cols := []string{"1:time:unix_ms", "2:label:la", "3:label:lo"}
	if layered {
		cols = append(cols, "4:label:layer")
	}
	for _, m := range metrics {
		cols = append(cols, fmt.Sprintf("%d:metric:%s_%s", len(cols)+1, metricPrefix, m))
	}
	return map[string]string{"format": strings.Join(cols, ",")}
}

type recToTextFunc func(*strings.Builder, *scan.Record, string, []string)

// recsToText converts multiple records to text.
func recsToText(recs []scan.Record, metricPrefix string, metrics []string, recToText recToTextFunc) string {
	var sb strings.Builder
	for _, r := range recs {
		recToText(&sb, &r, metricPrefix, metrics)
		sb.WriteString("\n")
	}
	return sb.String()
}

var recToTextFuncs = map[string]recToTextFunc{
	"/influx/write":        recToInfluxDB,
	"/influx/api/v2/write": recToInfluxDB,
	"/write":               recToInfluxDB,
	"/api/v2/write":        recToInfluxDB,
	"/api/v1/import/csv":   recToCSV,
}

// recToInfluxDB converts a record into InfluxDB line protocol v2 and appends
// it to the string builder. The layer tag is omitted for unlayered records.
func recToInfluxDB(sb *strings.Builder, r *scan.Record, metricPrefix string, metrics []string) {
	fmt.Fprintf(sb, "%s,la=%.2f,lo=%.2f", metricPrefix, r.Latitude, r.Longitude)
	if r.Layer >= 0 {
		fmt.Fprintf(sb, ",layer=%d", r.Layer)
	}
	for i, m := range metrics {
		sep := ","
		if i == 0 {
			sep = " "
		}
		fmt.Fprintf(sb, "%s%s=%s", sep, m, formatValue(r.Values[i]))
	}
	fmt.Fprintf(sb, " %d", r.Timestamp)
}

// recToCSV converts a record into a CSV record and appends it to the string
// builder. The layer column is omitted for unlayered records.
func recToCSV(sb *strings.Builder, r *scan.Record, _ string, _ []string) {
	fmt.Fprintf(sb, "%d,%.2f,%.2f", r.Timestamp, r.Latitude, r.Longitude)
	if r.Layer >= 0 {
		fmt.Fprintf(sb, ",%d", r.Layer)
	}
	for _, v := range r.Values {
		sb.WriteString(",")
		sb.WriteString(formatValue(v))
	}
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
