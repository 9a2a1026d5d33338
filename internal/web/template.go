package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/casalprim/doorbell-adapter/internal/status"
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
	"stateOrUnknown": func(s string) string {
		if s == "" {
			return "UNKNOWN"
		}
		return s
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<meta http-equiv="refresh" content="5">
<title>Doorbell Adapter</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.on { color: green; font-weight: bold; }
.off { color: #888; }
.unknown { color: orange; }
.connected { color: green; }
.disconnected { color: red; }
.pulsing { color: green; font-weight: bold; }
.idle { color: #888; }
</style>
</head>
<body>
<h1>Doorbell Adapter</h1>

<h2>Signals</h2>
<table>
<tr><th>Signal</th><td>State</td><td>ON</td><td>OFF</td></tr>
{{range .Signals}}{{$st := stateOrUnknown (printf "%s" .State)}}<tr><th>{{.Name}}</th><td class="{{if eq $st "ON"}}on{{else if eq $st "OFF"}}off{{else}}unknown{{end}}">{{$st}}</td><td>{{.On}}</td><td>{{.Off}}</td></tr>
{{end}}<tr><th>Ready</th><td>{{if .Ready}}yes{{else}}no{{end}}</td><td></td><td></td></tr>
</table>

<h2>Relay</h2>
<table>
<tr><th>State</th><td class="{{if .Pulse.Active}}pulsing{{else}}idle{{end}}">{{if .Pulse.Active}}pulsing{{else}}idle{{end}}</td></tr>
<tr><th>Pulses</th><td>{{.Pulse.Count}}</td></tr>
</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>
<tr><th>Base Topic</th><td>{{.Config.BaseTopic}}</td></tr>
</table>
{{if .Host}}
<h2>Host</h2>
<table>
<tr><th>Hostname</th><td>{{.Host.Hostname}}</td></tr>
<tr><th>Load (1m)</th><td>{{printf "%.2f" .Host.Load1}}</td></tr>
<tr><th>Memory Used</th><td>{{printf "%.1f" .Host.MemUsedPercent}}%</td></tr>
{{if .Host.CPUTempC}}<tr><th>CPU Temp</th><td>{{printf "%.1f" .Host.CPUTempC}}&deg;C</td></tr>{{end}}
</table>
{{end}}
<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Poll</th><td>{{.Config.PollMs}}ms</td></tr>
<tr><th>Debounce</th><td>{{.Config.DebounceMs}}ms</td></tr>
<tr><th>Pulse</th><td>{{.Config.PulseMs}}ms</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{.Config.HeartbeatMs}}ms{{end}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPAddr}}</td></tr>
</table>

<p><a href="/index.json">JSON</a></p>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) {
	// Snapshot has Uptime() method but template needs a Duration field.
	data := struct {
		status.Snapshot
		Uptime time.Duration
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
	}
	indexTmpl.Execute(w, data)
}
