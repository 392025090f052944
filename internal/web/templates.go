package web

// indexHTML is the single-page chat window.
const indexHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>paperchat</title>
<style>
  body { font-family: system-ui, sans-serif; margin: 0; background: #f6f6f8; }
  header { padding: 12px 20px; background: #1f2430; color: #fff; }
  header h1 { margin: 0; font-size: 18px; }
  #status { font-size: 13px; color: #9aa4b8; }
  #papers { padding: 8px 20px; font-size: 13px; color: #444; }
  #log { max-width: 820px; margin: 0 auto; padding: 16px 20px 90px; }
  .msg { margin: 10px 0; padding: 10px 14px; border-radius: 8px; }
  .user { background: #dce7ff; margin-left: 15%; }
  .assistant { background: #fff; border: 1px solid #e2e2e8; margin-right: 15%; }
  .error { background: #ffe4e4; color: #8a1f1f; }
  form { position: fixed; bottom: 0; left: 0; right: 0; background: #fff;
         border-top: 1px solid #ddd; display: flex; padding: 12px 20px; gap: 8px; }
  input { flex: 1; padding: 10px; font-size: 15px; border: 1px solid #ccc; border-radius: 6px; }
  button { padding: 10px 18px; font-size: 15px; border: 0; border-radius: 6px;
           background: #2b5cd9; color: #fff; cursor: pointer; }
</style>
</head>
<body>
<header><h1>paperchat</h1><div id="status">connecting…</div></header>
<div id="papers"></div>
<div id="log"></div>
<form id="form">
  <input id="input" placeholder="Ask about the papers…" autocomplete="off">
  <button>Send</button>
</form>
<script>
const log = document.getElementById('log');
const statusEl = document.getElementById('status');
let sessionId = '';

function add(cls, html) {
  const div = document.createElement('div');
  div.className = 'msg ' + cls;
  div.innerHTML = html;
  log.appendChild(div);
  window.scrollTo(0, document.body.scrollHeight);
}

async function poll() {
  const r = await fetch('/api/status');
  const s = await r.json();
  statusEl.textContent = s.ready ? s.papers + ' papers indexed' : s.status;
  if (!s.ready) { setTimeout(poll, 2000); return; }
  const pr = await fetch('/api/papers');
  const papers = await pr.json();
  document.getElementById('papers').textContent =
    'Papers I know about: ' + papers.map(p => p.title).join(' · ');
}
poll();

const ws = new WebSocket((location.protocol === 'https:' ? 'wss://' : 'ws://') + location.host + '/ws/chat');
ws.onmessage = (ev) => {
  const m = JSON.parse(ev.data);
  if (m.session_id) sessionId = m.session_id;
  if (m.type === 'error') add('error', m.content);
  else add('assistant', m.html || m.content);
};

document.getElementById('form').onsubmit = (e) => {
  e.preventDefault();
  const input = document.getElementById('input');
  const text = input.value.trim();
  if (!text) return;
  add('user', text);
  ws.send(JSON.stringify({type: 'query', session_id: sessionId, content: text}));
  input.value = '';
};
</script>
</body>
</html>`
