package web

import (
	"os"
	"testing"

	"github.com/dop251/goja"
)

const chosenImage = "data:image/png;base64,QUJD"

const okResult = `({
	faceShape: "Oval",
	characteristics: ["Testa ampla"],
	exercises: [{name: "Sorriso", description: "d", duration: "5 minutos", frequency: "Diariamente", benefits: ["b"]}],
	habits: [{name: "Água", description: "d", frequency: "Diariamente", impact: "Alto impacto"}],
	recommendations: ["r"]
})`

// page runs static/app.js against the fake DOM in testdata/fake_dom.js.
type page struct {
	t  *testing.T
	vm *goja.Runtime
}

func loadPage(t *testing.T) *page {
	t.Helper()

	dom, err := os.ReadFile("testdata/fake_dom.js")
	if err != nil {
		t.Fatalf("failed to read fake DOM: %v", err)
	}
	script, err := staticFS.ReadFile("static/app.js")
	if err != nil {
		t.Fatalf("failed to read app.js: %v", err)
	}

	p := &page{t: t, vm: goja.New()}
	if _, err := p.vm.RunScript("fake_dom.js", string(dom)); err != nil {
		t.Fatalf("fake DOM failed: %v", err)
	}
	if _, err := p.vm.RunScript("app.js", string(script)); err != nil {
		t.Fatalf("app.js failed: %v", err)
	}
	p.run(`document.listeners.DOMContentLoaded()`)
	return p
}

func (p *page) run(src string) goja.Value {
	p.t.Helper()
	v, err := p.vm.RunString(src)
	if err != nil {
		p.t.Fatalf("script %q failed: %v", src, err)
	}
	return v
}

func (p *page) view() string {
	p.t.Helper()
	return p.run(`$("app").getAttribute("data-view")`).String()
}

func (p *page) flag(expr string) bool {
	p.t.Helper()
	return p.run(expr).ToBoolean()
}

func (p *page) count(expr string) int64 {
	p.t.Helper()
	return p.run(expr).ToInteger()
}

func (p *page) expectView(want string) {
	p.t.Helper()
	if got := p.view(); got != want {
		p.t.Fatalf("expected view %q, got %q", want, got)
	}
}

func TestPageStartsIdle(t *testing.T) {
	p := loadPage(t)

	p.expectView("idle")
	if !p.flag(`$("analyze-button").disabled`) {
		t.Fatal("analyze button should be disabled without an image")
	}
	if p.flag(`$("camera-capture").hidden`) {
		t.Fatal("camera button should be shown when getUserMedia is available")
	}
}

func TestSelectImageThenAnalyzeBlocksResubmission(t *testing.T) {
	p := loadPage(t)

	p.run(`chooseFile("` + chosenImage + `")`)
	p.expectView("image-selected")
	if p.flag(`$("analyze-button").disabled`) {
		t.Fatal("analyze button should be enabled once an image is selected")
	}
	if got := p.run(`$("preview-image").src`).String(); got != chosenImage {
		t.Fatalf("unexpected preview src %q", got)
	}

	p.run(`submit()`)
	p.expectView("analyzing")
	if !p.flag(`$("analyze-button").disabled`) {
		t.Fatal("analyze button should be disabled while analyzing")
	}
	if !p.flag(`$("file-upload").disabled && $("camera-capture").disabled`) {
		t.Fatal("image sources should be disabled while analyzing")
	}

	p.run(`submit(); submit()`)
	if n := p.count(`requests.length`); n != 1 {
		t.Fatalf("expected a single request in flight, got %d", n)
	}
	if got := p.run(`JSON.parse(requests[0].body).image`).String(); got != chosenImage {
		t.Fatalf("request carried %q", got)
	}

	// Selecting while a request is in flight is ignored.
	p.run(`chooseFile("data:image/png;base64,T1RIRVI=")`)
	p.expectView("analyzing")
}

func TestAnalysisSuccessShowsResult(t *testing.T) {
	p := loadPage(t)

	p.run(`chooseFile("` + chosenImage + `"); submit()`)
	p.run(`respond(200, ` + okResult + `)`)

	p.expectView("result")
	if !p.flag(`$("capture").hidden`) || p.flag(`$("results").hidden`) {
		t.Fatal("expected results visible and capture hidden")
	}
	if n := p.count(`$("results").children.length`); n != 3 {
		t.Fatalf("expected 3 result cards, got %d", n)
	}
	if got := p.run(`$("results").children[0].children[1].children[0].textContent`).String(); got != "Oval" {
		t.Fatalf("unexpected face shape %q", got)
	}

	// "Nova Análise" returns to idle with nothing selected.
	p.run(`$("results").children[0].children[0].children[1].dispatch("click")`)
	p.expectView("idle")
	if p.flag(`$("preview-image").src !== undefined`) {
		t.Fatal("preview should be cleared on reset")
	}
}

func TestAnalysisFailureKeepsImage(t *testing.T) {
	for _, settle := range []string{
		`respond(500, {error: "Erro ao processar a análise facial"})`,
		`requests[0].reject(new Error("network down"))`,
	} {
		t.Run(settle, func(t *testing.T) {
			p := loadPage(t)

			p.run(`chooseFile("` + chosenImage + `"); submit()`)
			p.run(settle)

			p.expectView("error")
			if got := p.run(`$("error").textContent`).String(); got != MessageAnalysisFailed {
				t.Fatalf("unexpected error message %q", got)
			}
			if p.flag(`$("error").hidden || $("preview").hidden`) {
				t.Fatal("error and preview should both be visible")
			}
			if got := p.run(`$("preview-image").src`).String(); got != chosenImage {
				t.Fatalf("selected image lost after failure: %q", got)
			}
			if p.flag(`$("analyze-button").disabled`) {
				t.Fatal("retry should be possible after failure")
			}

			// A new selection clears the error.
			p.run(`chooseFile("data:image/png;base64,T1RIRVI=")`)
			p.expectView("image-selected")
			if !p.flag(`$("error").hidden`) || p.run(`$("error").textContent`).String() != "" {
				t.Fatal("error should be cleared by a new selection")
			}
		})
	}
}

func TestCameraCaptureReleasesStream(t *testing.T) {
	cases := []struct {
		name      string
		setup     string
		afterTick bool
		wantView  string
		wantStops int64
	}{
		{name: "success", setup: ``, wantView: "image-selected", wantStops: 1},
		{name: "getContext throws", setup: `camera.context = "throw"`, wantView: "error", wantStops: 1},
		{name: "no 2d context", setup: `camera.context = "null"`, wantView: "error", wantStops: 1},
		{name: "drawImage throws", setup: `camera.drawThrows = true`, wantView: "error", wantStops: 1},
		{name: "play rejected", setup: `camera.metadata = false; camera.playRejects = true`, wantView: "error", wantStops: 1},
		{name: "metadata never arrives", setup: `camera.metadata = false`, afterTick: true, wantView: "error", wantStops: 1},
		{name: "permission denied", setup: `camera.deny = true`, wantView: "error", wantStops: 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := loadPage(t)
			if tc.setup != "" {
				p.run(tc.setup)
			}

			p.run(`$("camera-capture").dispatch("click")`)
			if tc.afterTick {
				if n := p.count(`camera.stopped`); n != 0 {
					t.Fatalf("stream released before the timeout, stops=%d", n)
				}
				p.run(`runTimers()`)
			}

			p.expectView(tc.wantView)
			if n := p.count(`camera.stopped`); n != tc.wantStops {
				t.Fatalf("expected %d track stops, got %d", tc.wantStops, n)
			}
			if tc.wantView == "error" {
				if got := p.run(`$("error").textContent`).String(); got != MessageCameraFailed {
					t.Fatalf("unexpected camera message %q", got)
				}
			} else if got := p.run(`$("preview-image").src`).String(); got != "data:image/jpeg;base64,Y2FtZXJh" {
				t.Fatalf("captured frame not selected: %q", got)
			}
		})
	}
}
