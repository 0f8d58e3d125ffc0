package handler

import "html/template"

type listingPage struct {
	Title      string
	ParentHref string
	Rows       template.HTML
	Readme     template.HTML
	LiveReload bool
}

var pageTmpl = template.Must(template.New("listing").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Index of {{.Title}}</title>
<style>
body { font-family: -apple-system, "Segoe UI", Helvetica, sans-serif; margin: 2em; }
table { border-collapse: collapse; }
td { padding: 2px 12px; }
td.perms, td.size { font-family: monospace; }
td.size { text-align: right; }
td.icon-dir::before { content: "\1F4C1"; }
td.icon-file::before { content: "\1F4C4"; }
.readme { margin-top: 2em; border-top: 1px solid #ddd; }
</style>
</head>
<body>
<h1>Index of {{.Title}}</h1>
<table>
{{if .ParentHref}}<tr><td class="icon icon-dir"></td><td></td><td></td><td><a href="{{.ParentHref}}">..</a></td></tr>
{{end}}{{.Rows}}
</table>
{{if .Readme}}<div class="readme">{{.Readme}}</div>{{end}}
{{if .LiveReload}}<script>
(function () {
  var proto = location.protocol === "https:" ? "wss://" : "ws://";
  var ws = new WebSocket(proto + location.host + "/api/ws");
  var here = {{.Title}}.replace(/\/$/, "");
  ws.onmessage = function (e) {
    var msg = JSON.parse(e.data);
    var changed = "/" + msg.payload.path;
    if (changed.slice(0, changed.lastIndexOf("/")) === here) {
      location.reload();
    }
  };
})();
</script>{{end}}
</body>
</html>
`))
