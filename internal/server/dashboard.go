package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const dashboardHTML = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>xScout</title>
    <meta name="description" content="Live classroom activity telemetry">
    <link rel="icon" href="data:image/svg+xml,<svg xmlns='http://www.w3.org/2000/svg' viewBox='0 0 100 100'><text y='.9em' font-size='90'>&#128269;</text></svg>">
    <link rel="preconnect" href="https://fonts.googleapis.com">
    <link rel="preconnect" href="https://fonts.gstatic.com" crossorigin>
    <link href="https://fonts.googleapis.com/css2?family=Inter:wght@400;500;600&family=JetBrains+Mono:wght@400;500&display=swap" rel="stylesheet">
    <style>
        * { margin: 0; padding: 0; box-sizing: border-box; }

        :root {
            --bg: #09090b;
            --bg-subtle: #18181b;
            --border: #27272a;
            --text: #fafafa;
            --text-secondary: #a1a1aa;
            --text-tertiary: #52525b;
            --green: #22c55e;
            --yellow: #f59e0b;
            --red: #ef4444;
            --blue: #3b82f6;
        }

        body {
            font-family: 'Inter', -apple-system, sans-serif;
            background: var(--bg);
            color: var(--text);
            min-height: 100vh;
            font-size: 14px;
            line-height: 1.5;
            -webkit-font-smoothing: antialiased;
        }

        .mono { font-family: 'JetBrains Mono', monospace; }

        .container { max-width: 1200px; margin: 0 auto; padding: 0 24px; }

        header {
            border-bottom: 1px solid var(--border);
            padding: 16px 0;
            display: flex;
            align-items: center;
        }
        header .container { display: flex; align-items: center; justify-content: space-between; width: 100%; }
        .logo { font-weight: 600; font-size: 16px; }
        .logo span { color: var(--green); }
        .stats { color: var(--text-secondary); font-size: 13px; }

        main { padding: 32px 0; }

        table { width: 100%; border-collapse: collapse; }
        th {
            text-align: left;
            font-size: 12px;
            font-weight: 500;
            color: var(--text-tertiary);
            text-transform: uppercase;
            letter-spacing: 0.05em;
            padding: 8px 12px;
            border-bottom: 1px solid var(--border);
        }
        td { padding: 10px 12px; border-bottom: 1px solid var(--border); }
        tr:hover td { background: var(--bg-subtle); }
        td a { color: var(--text); text-decoration: none; }
        td a:hover { color: var(--blue); }

        .dot { display: inline-block; width: 8px; height: 8px; border-radius: 50%; margin-right: 8px; }
        .dot.online { background: var(--green); }
        .dot.offline { background: var(--text-tertiary); }

        .risk-low { color: var(--green); }
        .risk-mid { color: var(--yellow); }
        .risk-high { color: var(--red); }

        .empty { color: var(--text-tertiary); text-align: center; padding: 48px 0; }
    </style>
</head>
<body>
    <header>
        <div class="container">
            <div class="logo">x<span>Scout</span></div>
            <div class="stats" id="stats">loading...</div>
        </div>
    </header>
    <main>
        <div class="container">
            <table>
                <thead>
                    <tr>
                        <th>Student</th>
                        <th>Status</th>
                        <th>WPM</th>
                        <th>Flow</th>
                        <th>Fatigue</th>
                        <th>AI Risk</th>
                        <th>Active App</th>
                        <th>Last Seen</th>
                    </tr>
                </thead>
                <tbody id="rows"></tbody>
            </table>
            <div class="empty" id="empty" style="display:none">No telemetry yet</div>
        </div>
    </main>
    <script>
        function esc(s) {
            return String(s).replace(/[&<>"']/g, function(c) {
                return {'&':'&amp;','<':'&lt;','>':'&gt;','"':'&quot;',"'":'&#39;'}[c];
            });
        }

        function riskClass(r) {
            if (r >= 0.7) return 'risk-high';
            if (r >= 0.4) return 'risk-mid';
            return 'risk-low';
        }

        function latestApp(sample) {
            var apps = (sample.forensic && sample.forensic.appHistory) || [];
            var best = null;
            apps.forEach(function(a) {
                if (!best || a.lastSeen > best.lastSeen) best = a;
            });
            return best ? best.app : '-';
        }

        function render(samples) {
            var rows = document.getElementById('rows');
            var empty = document.getElementById('empty');
            if (!samples.length) {
                rows.innerHTML = '';
                empty.style.display = 'block';
                return;
            }
            empty.style.display = 'none';
            var now = Date.now();
            var online = 0;
            rows.innerHTML = samples.map(function(s) {
                var ts = new Date(s.timestamp);
                var isOnline = (now - ts.getTime()) < 10000;
                if (isOnline) online++;
                var b = s.behavior || {};
                var risk = s.ai || 0;
                return '<tr>' +
                    '<td><a href="/student/' + encodeURIComponent(s.user) + '">' + esc(s.user) + '</a></td>' +
                    '<td><span class="dot ' + (isOnline ? 'online' : 'offline') + '"></span>' + (isOnline ? 'online' : 'offline') + '</td>' +
                    '<td class="mono">' + (b.wpm || 0) + '</td>' +
                    '<td>' + esc(b.flowState || '-') + '</td>' +
                    '<td class="mono">' + (b.fatigue || 0) + '%</td>' +
                    '<td class="mono ' + riskClass(risk) + '">' + risk.toFixed(2) + '</td>' +
                    '<td>' + esc(latestApp(s)) + '</td>' +
                    '<td class="mono">' + ts.toLocaleTimeString() + '</td>' +
                    '</tr>';
            }).join('');
            document.getElementById('stats').textContent =
                samples.length + ' tracked / ' + online + ' online';
        }

        function refresh() {
            fetch('/api/telemetry')
                .then(function(r) { return r.json(); })
                .then(function(body) { render(body.data || []); })
                .catch(function() {});
        }

        refresh();
        setInterval(refresh, 3000);
    </script>
</body>
</html>`

const studentHTML = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>__USER__ - xScout</title>
    <link rel="preconnect" href="https://fonts.googleapis.com">
    <link rel="preconnect" href="https://fonts.gstatic.com" crossorigin>
    <link href="https://fonts.googleapis.com/css2?family=Inter:wght@400;500;600&family=JetBrains+Mono:wght@400;500&display=swap" rel="stylesheet">
    <style>
        * { margin: 0; padding: 0; box-sizing: border-box; }

        :root {
            --bg: #09090b;
            --bg-subtle: #18181b;
            --border: #27272a;
            --text: #fafafa;
            --text-secondary: #a1a1aa;
            --text-tertiary: #52525b;
            --green: #22c55e;
            --yellow: #f59e0b;
            --red: #ef4444;
        }

        body {
            font-family: 'Inter', -apple-system, sans-serif;
            background: var(--bg);
            color: var(--text);
            font-size: 14px;
            line-height: 1.5;
        }

        .mono { font-family: 'JetBrains Mono', monospace; }
        .container { max-width: 900px; margin: 0 auto; padding: 0 24px; }

        header { border-bottom: 1px solid var(--border); padding: 16px 0; }
        header a { color: var(--text-secondary); text-decoration: none; }
        header a:hover { color: var(--text); }
        h1 { font-size: 18px; font-weight: 600; display: inline; margin-left: 16px; }

        main { padding: 24px 0; }

        .banner {
            padding: 10px 16px;
            border-radius: 6px;
            margin-bottom: 20px;
            border: 1px solid var(--border);
            background: var(--bg-subtle);
        }
        .banner.success { border-color: var(--green); color: var(--green); }
        .banner.warning { border-color: var(--yellow); color: var(--yellow); }
        .banner.danger { border-color: var(--red); color: var(--red); }
        .banner.muted { color: var(--text-tertiary); }

        .controls { display: flex; align-items: center; gap: 12px; margin-bottom: 24px; }
        .controls button {
            background: var(--bg-subtle);
            border: 1px solid var(--border);
            color: var(--text);
            border-radius: 6px;
            padding: 6px 14px;
            cursor: pointer;
        }
        .controls button:hover { border-color: var(--text-secondary); }
        .controls input[type=range] { flex: 1; }

        .grid { display: grid; grid-template-columns: repeat(4, 1fr); gap: 12px; margin-bottom: 24px; }
        .card {
            background: var(--bg-subtle);
            border: 1px solid var(--border);
            border-radius: 6px;
            padding: 14px 16px;
        }
        .card .label { font-size: 11px; text-transform: uppercase; letter-spacing: 0.05em; color: var(--text-tertiary); }
        .card .value { font-size: 22px; font-weight: 600; margin-top: 4px; }

        section h2 { font-size: 13px; text-transform: uppercase; letter-spacing: 0.05em; color: var(--text-tertiary); margin: 20px 0 8px; }
        ul { list-style: none; }
        li { padding: 6px 0; border-bottom: 1px solid var(--border); color: var(--text-secondary); }
        pre {
            background: var(--bg-subtle);
            border: 1px solid var(--border);
            border-radius: 6px;
            padding: 12px;
            overflow-x: auto;
            font-family: 'JetBrains Mono', monospace;
            font-size: 12px;
            color: var(--text-secondary);
        }
    </style>
</head>
<body>
    <header>
        <div class="container">
            <a href="/">&larr; all students</a>
            <h1>__USER__</h1>
        </div>
    </header>
    <main>
        <div class="container">
            <div class="banner muted" id="banner">Loading...</div>
            <div class="controls">
                <button id="back">&larr;</button>
                <input type="range" id="slider" min="0" max="0" value="0">
                <button id="forward">&rarr;</button>
                <button id="live">Live</button>
            </div>
            <div class="grid">
                <div class="card"><div class="label">WPM</div><div class="value mono" id="wpm">-</div></div>
                <div class="card"><div class="label">Flow</div><div class="value" id="flow">-</div></div>
                <div class="card"><div class="label">Fatigue</div><div class="value mono" id="fatigue">-</div></div>
                <div class="card"><div class="label">AI Risk</div><div class="value mono" id="risk">-</div></div>
            </div>
            <section><h2>Applications</h2><ul id="apps"></ul></section>
            <section><h2>Open Documents</h2><ul id="docs"></ul></section>
            <section><h2>Recent URLs</h2><ul id="urls"></ul></section>
            <section><h2>Editor Snapshot</h2><pre id="snapshot">-</pre></section>
        </div>
    </main>
    <script>
        var user = __USER_JSON__;
        var liveMode = true;
        var total = 0;

        function esc(s) {
            return String(s).replace(/[&<>"']/g, function(c) {
                return {'&':'&amp;','<':'&lt;','>':'&gt;','"':'&quot;',"'":'&#39;'}[c];
            });
        }

        function renderView(view) {
            total = view.total;
            var slider = document.getElementById('slider');
            slider.max = Math.max(view.total - 1, 0);
            slider.value = view.index;

            var banner = document.getElementById('banner');
            banner.textContent = view.label;
            banner.className = 'banner ' + view.tone;

            var s = view.sample;
            if (!s) return;
            var b = s.behavior || {};
            var f = s.forensic || {};
            document.getElementById('wpm').textContent = b.wpm || 0;
            document.getElementById('flow').textContent = b.flowState || '-';
            document.getElementById('fatigue').textContent = (b.fatigue || 0) + '%';
            document.getElementById('risk').textContent = (s.ai || 0).toFixed(2);

            document.getElementById('apps').innerHTML = (f.appHistory || []).map(function(a) {
                var tabs = (a.tabs || []).map(esc).join(', ');
                return '<li>' + esc(a.app) + (tabs ? ' <span class="mono">[' + tabs + ']</span>' : '') + '</li>';
            }).join('') || '<li>-</li>';

            document.getElementById('docs').innerHTML = (f.activeDocuments || []).map(function(d) {
                return '<li class="mono">' + esc(d) + '</li>';
            }).join('') || '<li>-</li>';

            document.getElementById('urls').innerHTML = (f.urlHistory || []).map(function(u) {
                return '<li class="mono">' + esc(u) + '</li>';
            }).join('') || '<li>-</li>';

            document.getElementById('snapshot').textContent = (f.snapshot && f.snapshot.code) || '-';
        }

        function fetchView(index) {
            var url = '/api/replay/' + encodeURIComponent(user);
            if (index !== undefined) url += '?index=' + index;
            fetch(url)
                .then(function(r) { return r.json(); })
                .then(function(body) { renderView(body.data); })
                .catch(function() {
                    var banner = document.getElementById('banner');
                    banner.textContent = 'History Error';
                    banner.className = 'banner danger';
                });
        }

        document.getElementById('slider').addEventListener('input', function(e) {
            liveMode = false;
            fetchView(parseInt(e.target.value, 10));
        });
        document.getElementById('back').addEventListener('click', function() {
            liveMode = false;
            var v = parseInt(document.getElementById('slider').value, 10);
            fetchView(Math.max(v - 1, 0));
        });
        document.getElementById('forward').addEventListener('click', function() {
            var slider = document.getElementById('slider');
            var v = parseInt(slider.value, 10);
            var next = v + 1;
            if (next >= total - 1) { liveMode = true; fetchView(); return; }
            fetchView(next);
        });
        document.getElementById('live').addEventListener('click', function() {
            liveMode = true;
            fetchView();
        });

        fetchView();
        setInterval(function() { if (liveMode) fetchView(); }, 3000);
    </script>
</body>
</html>`

// dashboardHandler serves the live class overview page
func (s *Server) dashboardHandler(c *gin.Context) {
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.String(http.StatusOK, dashboardHTML)
}

// studentPageHandler serves the per-student detail page with replay controls.
// The :user param is validated by middleware, so it is safe to splice into the
// page as both text and a JS string literal.
func (s *Server) studentPageHandler(c *gin.Context) {
	user := c.Param("user")
	page := strings.ReplaceAll(studentHTML, "__USER_JSON__", `"`+user+`"`)
	page = strings.ReplaceAll(page, "__USER__", user)
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.String(http.StatusOK, page)
}
