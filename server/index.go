package server

// indexHTML is the minimal status page served at /. It shows the annotated
// stream next to live numbers polled from /health and /api/stats.
const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width,initial-scale=1">
<title>go-edge runtime</title>
<style>
*{box-sizing:border-box;margin:0;padding:0}
body{font-family:system-ui;background:#1a1a2e;color:#eee;min-height:100vh}
.hdr{background:#16213e;padding:1rem 2rem;display:flex;justify-content:space-between}
.hdr h1{font-size:1.5rem;color:#0df}
.cnt{display:flex;gap:1rem;padding:1rem;max-width:1400px;margin:0 auto}
.vp{flex:2}.sp{flex:1;display:flex;flex-direction:column;gap:1rem}
.cd{background:#16213e;border-radius:8px;padding:1rem}
.cd h2{font-size:1rem;color:#0df;margin-bottom:.5rem}
.vc{background:#000;border-radius:8px;overflow:hidden}
.vc img{width:100%;display:block}
</style>
</head>
<body>
<div class="hdr"><h1>go-edge runtime</h1><span id="st"></span></div>
<div class="cnt">
<div class="vp"><div class="vc"><img src="/stream/annotated" alt="stream"></div></div>
<div class="sp">
<div class="cd"><h2>Status</h2>
<div>FPS: <span id="fps">-</span></div>
<div>Uptime: <span id="ut">-</span></div>
<div>Detections: <span id="dt">-</span></div>
<div>Frames: <span id="fr">-</span></div>
</div>
<div class="cd"><h2>Results</h2><pre id="res">{}</pre></div>
</div>
</div>
<script>
async function tick(){
  try{
    const [h,s,r]=await Promise.all([
      fetch('/health').then(x=>x.json()),
      fetch('/api/stats').then(x=>x.json()),
      fetch('/api/results').then(x=>x.json())]);
    document.getElementById('st').textContent=h.status;
    document.getElementById('fps').textContent=h.fps.toFixed(1);
    document.getElementById('ut').textContent=s.uptime_sec+'s';
    document.getElementById('dt').textContent=s.total_detections;
    document.getElementById('fr').textContent=s.total_frames;
    document.getElementById('res').textContent=JSON.stringify(r,null,1);
  }catch(e){}
}
setInterval(tick,1000);tick();
</script>
</body>
</html>`
