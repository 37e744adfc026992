package server

import (
	"net/http"
)

// indexPage is a minimal single-page client that exercises the full
// protocol: it reports navigation, signals render completion, pushes head
// content refs, and acknowledges title commands from the server.
const indexPage = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>headsync</title>
</head>
<body>
<h1>headsync demo</h1>
<p>Navigate with the links below and watch the document title follow.</p>
<nav>
<a href="/docs/getting-started" data-nav>Getting started</a>
<a href="/docs/api-reference" data-nav>API reference</a>
<a href="/" data-nav>Home</a>
</nav>
<pre id="log"></pre>
<script>
(function () {
	var log = document.getElementById("log");
	function append(line) {
		log.textContent += line + "\n";
	}

	var proto = location.protocol === "https:" ? "wss:" : "ws:";
	var ws = new WebSocket(proto + "//" + location.host +
		"/ws?location=" + encodeURIComponent(location.href));

	function send(msg) {
		if (ws.readyState === WebSocket.OPEN) {
			ws.send(JSON.stringify(msg));
		}
	}

	ws.onopen = function () {
		append("connected");
		send({type: "render_complete"});
	};

	ws.onmessage = function (ev) {
		var cmd = JSON.parse(ev.data);
		var ack = {id: cmd.id, ok: true};
		switch (cmd.type) {
		case "set_title":
			document.title = cmd.title;
			append("title: " + cmd.title);
			break;
		case "process_head_content":
			var parsed = new DOMParser().parseFromString(cmd.ref.markup, "text/html");
			var t = parsed.querySelector("title");
			if (t) {
				document.title = t.textContent;
				ack.title = t.textContent;
			}
			append("head content: " + cmd.ref.id);
			break;
		default:
			ack.ok = false;
			ack.error = "unknown command: " + cmd.type;
		}
		send({type: "ack", ack: ack});
	};

	ws.onclose = function () {
		append("disconnected");
	};

	function navigated() {
		send({type: "navigate", location: location.href});
	}
	window.addEventListener("popstate", navigated);

	document.querySelectorAll("a[data-nav]").forEach(function (a) {
		a.addEventListener("click", function (ev) {
			ev.preventDefault();
			history.pushState(null, "", a.getAttribute("href"));
			navigated();
		});
	});
})();
</script>
</body>
</html>
`

// handleIndex serves the page for every path so client-side routes survive
// a reload.
func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(indexPage))
}
