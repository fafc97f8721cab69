package http

import (
	"html/template"
	"io"
	"time"

	"github.com/dustin/go-humanize"

	"go-template-trends-ui/internal/connectors/activity"
	"go-template-trends-ui/internal/dashboard"
)

type pageData struct {
	dashboard.State
	Activity   []activity.Entry
	TrendSVG   template.HTML
	LatencySVG template.HTML
}

func renderPage(w io.Writer, state dashboard.State, entries []activity.Entry) error {
	data := pageData{State: state, Activity: entries}
	if state.Trend.Chart != nil {
		data.TrendSVG = state.Trend.Chart.HTML()
	}
	if len(state.HealthHistory) > 0 {
		data.LatencySVG = state.LatencyChart().HTML()
	}
	return dashboardPage.Execute(w, data)
}

var dashboardPage = template.Must(template.New("dashboard").Funcs(template.FuncMap{
	"ago": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return humanize.Time(t)
	},
	"panelClass": func(p dashboard.Panel) string {
		if p.Failed() {
			return "result warn"
		}
		return "result"
	},
}).Parse(dashboardHTML))

const dashboardHTML = `<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>Template Trends</title>
  <style>
    :root {
      --brand: #0f766e;
      --brand-2: #14b8a6;
      --bg: #f7f7f7;
      --paper: #fff;
      --text: #333;
      --muted: #777;
      --line: #ddd;
      --bad-bg: #f2dede;
      --bad-text: #a94442;
    }

    * { box-sizing: border-box; }

    body {
      margin: 0;
      background: var(--bg);
      color: var(--text);
      font-family: "Helvetica Neue", Helvetica, Arial, sans-serif;
      font-size: 14px;
      line-height: 1.42857143;
    }

    header {
      background: linear-gradient(to right, var(--brand) 0, var(--brand-2) 100%);
      box-shadow: 0 2px 5px rgba(0, 0, 0, 0.15);
    }

    .container { margin: 0 auto; padding: 0 15px; max-width: 1200px; }

    .header-inner {
      min-height: 64px;
      display: flex;
      align-items: center;
      justify-content: space-between;
      gap: 16px;
    }

    .brand { color: #fff; font-size: 22px; font-weight: 300; }
    .brand strong { font-weight: 600; }

    .badge {
      background: rgba(255, 255, 255, 0.9);
      color: var(--brand);
      padding: 4px 10px;
      border-radius: 12px;
      font-size: 12px;
      font-weight: 600;
    }
    .badge.warn { background: var(--bad-bg); color: var(--bad-text); }

    main { padding: 18px 0 32px; }

    .tabs {
      display: flex;
      gap: 8px;
      margin-bottom: 14px;
      border-bottom: 1px solid var(--line);
      padding-bottom: 8px;
    }

    .tab {
      border: 1px solid #b7dcd7;
      background: #f0faf8;
      color: var(--brand);
      padding: 6px 10px;
      font-size: 12px;
      font-weight: 600;
      text-decoration: none;
    }
    .tab.is-active { background: var(--brand); color: #fff; border-color: var(--brand); }

    .panel { display: none; background: var(--paper); border: 1px solid var(--line); padding: 16px; }
    .panel.is-active { display: block; }
    .aside { margin-top: 14px; background: var(--paper); border: 1px solid var(--line); padding: 16px; }

    form { display: flex; flex-wrap: wrap; gap: 10px; align-items: center; margin-bottom: 12px; }
    label { font-size: 12px; color: var(--muted); }

    .result {
      white-space: pre-wrap;
      background: #fafafa;
      border: 1px solid #eee;
      padding: 10px;
      min-height: 40px;
      font-family: Menlo, Consolas, monospace;
      font-size: 12px;
    }
    .result.warn, .warn { color: var(--bad-text); }

    .list-item {
      display: flex;
      justify-content: space-between;
      align-items: center;
      border-bottom: 1px solid #eee;
      padding: 8px 0;
    }
    .meta, .empty { color: var(--muted); font-size: 12px; }

    .chart { margin: 12px 0; }
    .chart svg { width: 100%; height: 180px; }

    table { width: 100%; border-collapse: collapse; font-size: 12px; }
    th, td { text-align: left; border-bottom: 1px solid #eee; padding: 4px 6px; }
  </style>
</head>
<body>
  <header>
    <div class="container header-inner">
      <div class="brand"><strong>Template</strong> Trends</div>
      <span id="healthBadge" class="badge{{if .Health.Warn}} warn{{end}}">{{.Health.Text}}</span>
    </div>
  </header>

  <main>
    <div class="container">
      <nav class="tabs">
        {{range .Tabs}}<a class="tab{{if .Active}} is-active{{end}}" data-tab="{{.Name}}" href="/?tab={{.Name}}">{{.Label}}</a>
        {{end}}
      </nav>

      {{range .Tabs}}{{if eq .Name "analyze"}}
      <section id="{{.PanelID}}" class="panel{{if .Active}} is-active{{end}}">
        <h2>Analyze a document</h2>
        <form method="post" action="/ui/analyze" enctype="multipart/form-data">
          <input type="file" name="file" />
          <button type="submit">Analyze</button>
        </form>
        <pre id="analyzeResult" class="{{panelClass $.Analyze}}">{{$.Analyze.Text}}</pre>
      </section>
      {{else if eq .Name "ingest"}}
      <section id="{{.PanelID}}" class="panel{{if .Active}} is-active{{end}}">
        <h2>Ingest a document</h2>
        <form method="post" action="/ui/ingest" enctype="multipart/form-data">
          <input type="file" name="file" />
          <label>Template name <input type="text" name="template_name" /></label>
          <label>Template ID <input type="text" name="template_id" /></label>
          <label><input type="checkbox" name="force" value="true" /> Force</label>
          <button type="submit">Ingest</button>
        </form>
        <pre id="ingestResult" class="{{panelClass $.Ingest}}">{{$.Ingest.Text}}</pre>
      </section>
      {{else if eq .Name "templates"}}
      <section id="{{.PanelID}}" class="panel{{if .Active}} is-active{{end}}">
        <h2>Templates</h2>
        <form method="post" action="/ui/templates/refresh">
          <button type="submit">Refresh</button>
        </form>
        <div id="templatesList">
          {{if $.Catalog.Error}}<div class="warn">{{$.Catalog.Error}}</div>
          {{else if $.Catalog.Placeholder}}<div class="meta">{{$.Catalog.Placeholder}}</div>
          {{else}}{{range $.Catalog.Rows}}
          <div class="list-item">
            <div><strong>{{.Title}}</strong><div class="meta">{{.Meta}}{{if .Age}} ({{.Age}}){{end}}</div></div>
            <a href="/ui/templates/{{.ID}}">Open</a>
          </div>
          {{end}}{{end}}
        </div>
        <pre id="templateDetail" class="{{panelClass $.Detail}}">{{$.Detail.Text}}</pre>
      </section>
      {{else if eq .Name "trends"}}
      <section id="{{.PanelID}}" class="panel{{if .Active}} is-active{{end}}">
        <h2>Trends</h2>
        <form method="post" action="/ui/trends/template">
          <select id="trendTemplate" name="template_id">
            {{range $.TemplateOptions}}<option value="{{.Value}}"{{if .Selected}} selected{{end}}>{{.Label}}</option>
            {{end}}
          </select>
          <button type="submit">Load metrics</button>
        </form>
        <form method="post" action="/ui/trends/query">
          <input type="hidden" name="template_id" value="{{$.Trend.TemplateID}}" />
          <select id="trendMetric" name="metric">
            {{range $.Trend.MetricOptions}}<option value="{{.Value}}"{{if .Selected}} selected{{end}}>{{.Label}}</option>
            {{end}}
          </select>
          <label>Sheet <input type="text" name="sheet_name" value="{{$.Trend.SheetName}}" /></label>
          <label>From <input type="date" name="start_date" value="{{$.Trend.StartDate}}" /></label>
          <label>To <input type="date" name="end_date" value="{{$.Trend.EndDate}}" /></label>
          <button type="submit">Show trend</button>
        </form>
        <div id="trendChartWrap" class="chart">{{$.TrendSVG}}</div>
        <pre id="trendResult" class="{{panelClass $.Trend.Result}}">{{$.Trend.Result.Text}}</pre>
      </section>
      {{end}}{{end}}

      <section id="activity" class="aside">
        <h3>Backend latency</h3>
        <div class="chart">{{if .LatencySVG}}{{.LatencySVG}}{{else}}<div class="empty">No probes yet</div>{{end}}</div>
        <h3>Recent activity</h3>
        <table>
          <thead><tr><th>When</th><th>Kind</th><th>Outcome</th><th>Duration</th><th>Message</th></tr></thead>
          <tbody>
          {{range .Activity}}<tr><td>{{ago .CreatedAt}}</td><td>{{.Kind}}</td><td>{{.Outcome}}</td><td>{{.DurationMS}} ms</td><td>{{.Message}}</td></tr>
          {{else}}<tr><td colspan="5" class="meta">No activity recorded.</td></tr>
          {{end}}
          </tbody>
        </table>
      </section>
    </div>
  </main>
</body>
</html>
`
