package budget

import "github.com/prometheus/client_golang/prometheus"

// Collector exports the meter tracker and dimension totals as prometheus
// metrics, for the same scrape endpoint a node already serves.
type Collector struct {
	budget *Budget

	cpuConsumed *prometheus.Desc
	memConsumed *prometheus.Desc
	iterations  *prometheus.Desc
	inputSum    *prometheus.Desc
	meterCalls  *prometheus.Desc
}

func NewCollector(b *Budget) *Collector {
	return &Collector{
		budget: b,
		cpuConsumed: prometheus.NewDesc(
			"wasmhost_budget_cpu_insns_consumed",
			"Total cpu instructions consumed by the current invocation.",
			nil, nil),
		memConsumed: prometheus.NewDesc(
			"wasmhost_budget_mem_bytes_consumed",
			"Total memory bytes consumed by the current invocation.",
			nil, nil),
		iterations: prometheus.NewDesc(
			"wasmhost_budget_cost_iterations",
			"Meter iterations recorded per cost type.",
			[]string{"cost_type"}, nil),
		inputSum: prometheus.NewDesc(
			"wasmhost_budget_cost_input_sum",
			"Meter input sum recorded per linear cost type.",
			[]string{"cost_type"}, nil),
		meterCalls: prometheus.NewDesc(
			"wasmhost_budget_meter_calls",
			"Total number of meter calls.",
			nil, nil),
	}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.cpuConsumed
	ch <- c.memConsumed
	ch <- c.iterations
	ch <- c.inputSum
	ch <- c.meterCalls
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	if cpu, err := c.budget.CPUInsnsConsumed(); err == nil {
		ch <- prometheus.MustNewConstMetric(c.cpuConsumed, prometheus.GaugeValue, float64(cpu))
	}
	if mem, err := c.budget.MemBytesConsumed(); err == nil {
		ch <- prometheus.MustNewConstMetric(c.memConsumed, prometheus.GaugeValue, float64(mem))
	}
	if calls, err := c.budget.TrackerCount(); err == nil {
		ch <- prometheus.MustNewConstMetric(c.meterCalls, prometheus.GaugeValue, float64(calls))
	}
	for ct := CostType(0); int(ct) < NumCostTypes; ct++ {
		iters, input, err := c.budget.Tracker(ct)
		if err != nil {
			continue
		}
		ch <- prometheus.MustNewConstMetric(c.iterations, prometheus.GaugeValue, float64(iters), ct.String())
		if input != nil {
			ch <- prometheus.MustNewConstMetric(c.inputSum, prometheus.GaugeValue, float64(*input), ct.String())
		}
	}
}
