package report

// ReportTemplate is the HTML template for the run report.
// It is embedded as a Go constant with no external file dependencies.
const ReportTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>{{.Title}}</title>
<style>
  :root {
    --bg: #ffffff;
    --text: #1a1a2e;
    --muted: #6b7280;
    --border: #e5e7eb;
    --accent: #2563eb;
    --green: #16a34a;
    --red: #dc2626;
    --section-bg: #f8fafc;
  }
  * { margin: 0; padding: 0; box-sizing: border-box; }
  body {
    font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
    color: var(--text);
    background: var(--bg);
    line-height: 1.6;
    max-width: 1000px;
    margin: 0 auto;
    padding: 20px;
  }
  h1, h2, h3 { font-weight: 600; }
  h1 { font-size: 1.5rem; margin-bottom: 4px; }
  h2 { font-size: 1.2rem; margin: 24px 0 12px; padding-bottom: 6px; border-bottom: 2px solid var(--accent); }
  h3 { font-size: 1rem; margin: 16px 0 8px; }
  .muted { color: var(--muted); font-size: 0.85rem; }

  /* Header */
  .header {
    display: flex;
    justify-content: space-between;
    align-items: flex-start;
    border-bottom: 3px solid var(--accent);
    padding-bottom: 12px;
    margin-bottom: 16px;
  }
  .header-left h1 { color: var(--accent); }
  .header-right { text-align: right; }
  .index-badge {
    display: inline-block;
    background: var(--accent);
    color: white;
    padding: 2px 12px;
    border-radius: 4px;
    font-weight: 700;
    font-size: 1.1rem;
    margin-right: 8px;
  }

  /* Stat bar */
  .stat-bar {
    display: grid;
    grid-template-columns: repeat(auto-fill, minmax(160px, 1fr));
    gap: 8px;
    background: var(--section-bg);
    padding: 12px;
    border-radius: 8px;
    margin-bottom: 16px;
  }
  .stat-item { text-align: center; }
  .stat-item .label { font-size: 0.75rem; color: var(--muted); text-transform: uppercase; }
  .stat-item .value { font-size: 1rem; font-weight: 600; }
  .positive { color: var(--green); }
  .negative { color: var(--red); }

  /* Tables */
  table { width: 100%; border-collapse: collapse; margin: 8px 0 16px; font-size: 0.9rem; }
  th { background: var(--section-bg); text-align: left; padding: 8px; font-weight: 600; }
  td { padding: 6px 8px; border-bottom: 1px solid var(--border); }
  td.num, th.num { text-align: right; font-variant-numeric: tabular-nums; }
  .columns { display: grid; grid-template-columns: 1fr 1fr; gap: 16px; }

  /* Chart container */
  .chart-container {
    margin: 12px 0;
    overflow-x: auto;
  }
  .chart-container svg { max-width: 100%; height: auto; }

  .section { margin: 20px 0; }

  /* Footer */
  .footer {
    margin-top: 30px;
    padding-top: 12px;
    border-top: 2px solid var(--border);
    font-size: 0.8rem;
    color: var(--muted);
    text-align: center;
  }

  @media print {
    body { max-width: 100%; padding: 10px; }
    .section { page-break-inside: avoid; }
    .columns { grid-template-columns: 1fr; }
  }
</style>
</head>
<body>

<!-- ═══════ HEADER ═══════ -->
<div class="header">
  <div class="header-left">
    <h1><span class="index-badge">{{.IndexName}}</span> {{.Title}}</h1>
    <p class="muted">{{.Start}} → {{.End}} · {{.PriceField}} · {{.Currency}} · calendar: {{.Calendar}}</p>
  </div>
  <div class="header-right">
    <p class="muted">{{.GeneratedAt}}</p>
  </div>
</div>

<!-- ═══════ SUMMARY ═══════ -->
<div class="stat-bar">
  <div class="stat-item"><div class="label">Scored</div><div class="value">{{.Scored}}</div></div>
  <div class="stat-item"><div class="label">Skipped</div><div class="value">{{.Skipped}}</div></div>
  {{if .Best}}
  <div class="stat-item"><div class="label">Best</div><div class="value positive">{{.Best}}</div></div>
  <div class="stat-item"><div class="label">Worst</div><div class="value negative">{{.Worst}}</div></div>
  <div class="stat-item"><div class="label">Median</div><div class="value">{{.Median}}</div></div>
  {{end}}
</div>

<!-- ═══════ MOVERS ═══════ -->
<div class="section">
  <h2>Top Movers</h2>
  <table>
    <thead><tr><th class="num">#</th><th>Ticker</th><th>Company</th><th>Sector</th><th>Industry</th><th class="num">Performance</th><th class="num">Mean Volume</th></tr></thead>
    <tbody>
    {{range .Top}}
    <tr>
      <td class="num">{{.Rank}}</td><td>{{.Ticker}}</td><td>{{.Name}}</td><td>{{.Sector}}</td><td>{{.Industry}}</td>
      <td class="num {{.Class}}">{{.Performance}}</td><td class="num">{{.MeanVolume}}</td>
    </tr>
    {{end}}
    </tbody>
  </table>

  <h2>Bottom Movers</h2>
  <table>
    <thead><tr><th class="num">#</th><th>Ticker</th><th>Company</th><th>Sector</th><th>Industry</th><th class="num">Performance</th><th class="num">Mean Volume</th></tr></thead>
    <tbody>
    {{range .Bottom}}
    <tr>
      <td class="num">{{.Rank}}</td><td>{{.Ticker}}</td><td>{{.Name}}</td><td>{{.Sector}}</td><td>{{.Industry}}</td>
      <td class="num {{.Class}}">{{.Performance}}</td><td class="num">{{.MeanVolume}}</td>
    </tr>
    {{end}}
    </tbody>
  </table>

  <div class="chart-container">{{.MoversChart}}</div>
</div>

<!-- ═══════ GROUPS ═══════ -->
<div class="section">
  <h2>Sectors &amp; Industries</h2>
  <div class="chart-container">{{.SectorChart}}</div>
  <div class="columns">
    <div>
      <h3>By sector</h3>
      <table>
        <thead><tr><th>Sector</th><th class="num">Performance</th><th class="num">Members</th></tr></thead>
        <tbody>
        {{range .Sectors}}
        <tr><td>{{.Group}}</td><td class="num {{.Class}}">{{.Performance}}</td><td class="num">{{.Members}}</td></tr>
        {{end}}
        </tbody>
      </table>
    </div>
    <div>
      <h3>By industry</h3>
      <table>
        <thead><tr><th>Industry</th><th class="num">Performance</th><th class="num">Members</th></tr></thead>
        <tbody>
        {{range .Industries}}
        <tr><td>{{.Group}}</td><td class="num {{.Class}}">{{.Performance}}</td><td class="num">{{.Members}}</td></tr>
        {{end}}
        </tbody>
      </table>
    </div>
  </div>
</div>

<!-- ═══════ SKIPPED ═══════ -->
{{if .SkipRows}}
<div class="section">
  <h2>Skipped Tickers</h2>
  <table>
    <thead><tr><th>Ticker</th><th>Reason</th></tr></thead>
    <tbody>
    {{range .SkipRows}}
    <tr><td>{{.Ticker}}</td><td>{{.Reason}}</td></tr>
    {{end}}
    </tbody>
  </table>
</div>
{{end}}

<!-- ═══════ FOOTER ═══════ -->
<div class="footer">
  <p>Performance is the sum of daily percentage changes over the window, not a compounded return.
  Group figures are unweighted means of member performance.</p>
  <p>Generated by indexmovers on {{.GeneratedAt}} · benchmark {{.Benchmark}}</p>
</div>

</body>
</html>`
