// Package templates holds the dashboard page components. The page is a
// static shell; every chart hydrates itself over the datastar SSE
// endpoints after load.
package templates

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

func Dashboard() templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, dashboardHTML)
		return err
	})
}

const dashboardHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8"/>
<meta name="viewport" content="width=device-width, initial-scale=1"/>
<title>Vehicle Registration Analytics</title>
<script type="module" src="https://cdn.jsdelivr.net/gh/starfederation/datastar@main/bundles/datastar.js"></script>
<script src="https://cdn.jsdelivr.net/npm/chart.js"></script>
<style>
body { font-family: system-ui, sans-serif; margin: 0; background: #f5f6fa; color: #222; }
header { background: #1a2b4c; color: #fff; padding: 1rem 2rem; }
header h1 { margin: 0; font-size: 1.4rem; }
main { padding: 1.5rem 2rem; display: grid; gap: 1.5rem; grid-template-columns: 1fr 1fr; }
section { background: #fff; border-radius: 8px; padding: 1rem 1.25rem; box-shadow: 0 1px 3px rgba(0,0,0,.08); }
section.wide { grid-column: 1 / -1; }
h2 { margin-top: 0; font-size: 1.05rem; }
.modern-table { width: 100%; border-collapse: collapse; font-size: .9rem; }
.modern-table th, .modern-table td { text-align: left; padding: .4rem .6rem; border-bottom: 1px solid #eee; }
.growth-badge { background: #eef3ff; border-radius: 4px; padding: .1rem .4rem; font-size: .8rem; }
.toolbar { display: flex; gap: .75rem; align-items: center; }
.toolbar a, .toolbar button { font-size: .85rem; }
</style>
</head>
<body data-signals="{trendData: [], shareData: [], manufacturerData: []}">
<header>
<h1>Vehicle Registration Analytics Dashboard</h1>
</header>
<main>
<section class="wide">
<div class="toolbar">
<button data-on-click="@get('/sse/refresh-all')">Refresh all</button>
<a href="/api/export/csv">Download CSV</a>
<a href="/api/export/xlsx">Download Excel</a>
<a href="/api/export/summary.csv">Download growth metrics</a>
</div>
</section>
<section class="wide" data-on-load="@get('/sse/monthly-trend')">
<h2>Monthly Registration Trend</h2>
<div id="trend-content">Loading…</div>
<canvas id="trend-chart" height="80"></canvas>
</section>
<section data-on-load="@get('/sse/market-share')">
<h2>Category Market Share</h2>
<div id="share-content">Loading…</div>
<canvas id="share-chart"></canvas>
</section>
<section data-on-load="@get('/sse/manufacturers')">
<h2>Top Manufacturers</h2>
<div id="manufacturers-content">Loading…</div>
<canvas id="manufacturers-chart"></canvas>
</section>
<section class="wide" data-on-load="@get('/sse/state-performance')">
<h2>State Performance</h2>
<div id="states-content">Loading…</div>
</section>
</main>
</body>
</html>`
