package metrics

// Config selects which metric sinks are active.
type Config struct {
	PrometheusEnabled bool   `json:"prometheus_enabled"`
	InfluxEnabled     bool   `json:"influx_enabled"`
	InfluxURL         string `json:"influx_url"`
	InfluxToken       string `json:"influx_token"`
	InfluxOrg         string `json:"influx_org"`
	InfluxBucket      string `json:"influx_bucket"`
}
