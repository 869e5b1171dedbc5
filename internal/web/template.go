package web

import (
	"fmt"
	"html/template"
	"io"
	"strings"
	"time"

	"github.com/sweeney/click-debounce/internal/logic"
	"github.com/sweeney/click-debounce/internal/status"
)

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	"uptime": func(d time.Duration) string {
		d = d.Truncate(time.Second)
		days := int(d.Hours()) / 24
		h := int(d.Hours()) % 24
		m := int(d.Minutes()) % 60
		s := int(d.Seconds()) % 60
		if days > 0 {
			return fmt.Sprintf("%dd %dh %dm %ds", days, h, m, s)
		}
		if h > 0 {
			return fmt.Sprintf("%dh %dm %ds", h, m, s)
		}
		if m > 0 {
			return fmt.Sprintf("%dm %ds", m, s)
		}
		return fmt.Sprintf("%ds", s)
	},
	"lower": strings.ToLower,
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Click Debounce</title>
<style>
body { font-family: monospace; max-width: 640px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
.on { color: green; font-weight: bold; }
.off { color: #888; }
.connected { color: green; }
.disconnected { color: red; }
#log li { list-style: none; }
</style>
</head>
<body>
<h1>Click Debounce</h1>
<p class="{{if .Active}}on{{else}}off{{end}}">{{if .Active}}Fix is active{{else}}No buttons are filtered{{end}}</p>

<h2>Buttons</h2>
<table>
<tr><th>Button</th><th>Threshold</th><th>Passed</th><th>Suppressed</th></tr>
{{range .Buttons}}<tr id="btn-{{lower .Name}}"><td>{{.Name}}</td><td class="{{if .Enabled}}on{{else}}off{{end}}">{{if .Enabled}}{{.Threshold}}ms{{else}}disabled{{end}}</td><td>{{.Passed}}</td><td class="suppressed">{{.Suppressed}}</td></tr>
{{end}}</table>

<h2>Last Suppression</h2>
<ul id="log">
{{with .LastSuppression}}<li>{{.Timestamp.UTC.Format "2006-01-02T15:04:05.000Z"}} {{.Channel}} {{.Edge}}{{if .Measured}} after {{.IntervalMs}}ms{{end}}</li>{{else}}<li>none</li>{{end}}
</ul>

<h2>System</h2>
<table>
<tr><th>Source</th><td>{{.Config.Source}}</td></tr>
<tr><th>Running</th><td>{{if .Running}}yes{{else}}no{{end}}</td></tr>
<tr><th>Clock</th><td>{{.Config.Clock}}</td></tr>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>MQTT backlog</th><td>{{.MQTTQueued}} queued, {{.MQTTDropped}} dropped</td></tr>
<tr><th>Broker</th><td>{{if .Config.Broker}}{{.Config.Broker}}{{else}}disabled{{end}}</td></tr>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{.Config.HeartbeatMs}}ms{{end}}</td></tr>
</table>

<p><a href="/index.json">JSON</a></p>
<script>
(function() {
  var proto = location.protocol === "https:" ? "wss://" : "ws://";
  var ws = new WebSocket(proto + location.host + "/events");
  var log = document.getElementById("log");
  ws.onmessage = function(ev) {
    try {
      var d = JSON.parse(ev.data).debounce;
      var row = document.getElementById("btn-" + d.button);
      if (row) {
        var cell = row.querySelector(".suppressed");
        cell.textContent = parseInt(cell.textContent, 10) + 1;
      }
      var li = document.createElement("li");
      li.textContent = d.timestamp + " " + d.button + " " + d.edge +
        (d.interval_ms !== undefined ? " after " + d.interval_ms + "ms" : "");
      log.insertBefore(li, log.firstChild);
      while (log.children.length > 20) { log.removeChild(log.lastChild); }
    } catch (e) {}
  };
})();
</script>
</body>
</html>
`

type buttonRow struct {
	Name       string
	Enabled    bool
	Threshold  int
	Passed     int
	Suppressed int
}

func renderHTML(w io.Writer, snap status.Snapshot) {
	// Snapshot has Uptime() and Active() methods but the template wants fields.
	data := struct {
		status.Snapshot
		Uptime  time.Duration
		Active  bool
		Buttons []buttonRow
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
		Active:   snap.Active(),
	}
	for _, ch := range logic.Channels() {
		th := snap.Config.Thresholds[ch]
		data.Buttons = append(data.Buttons, buttonRow{
			Name:       ch.String(),
			Enabled:    th >= 0,
			Threshold:  th,
			Passed:     snap.Counts[ch].Passed,
			Suppressed: snap.Counts[ch].Suppressed,
		})
	}
	indexTmpl.Execute(w, data)
}
