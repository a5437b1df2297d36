package hierarchy

import (
	"errors"
	"testing"

	"github.com/devicelab-dev/droidpilot/pkg/core"
)

const dumpFormatXML = `<?xml version='1.0' encoding='UTF-8' standalone='yes' ?>
<hierarchy rotation="0">
  <android.widget.FrameLayout bounds="[0,0][1280,720]" enabled="true" package="com.example.game">
    <android.widget.TextView text="Start" resource-id="com.example.game:id/start" bounds="[100,200][300,260]" enabled="true" clickable="true"/>
    <android.widget.ScrollView resource-id="com.example.game:id/list" bounds="[0,300][1280,720]" enabled="true" scrollable="true">
      <android.widget.TextView text="Item One" bounds="[0,300][1280,360]" enabled="true"/>
    </android.widget.ScrollView>
  </android.widget.FrameLayout>
</hierarchy>`

const nodeFormatXML = `<?xml version='1.0' encoding='UTF-8' standalone='yes' ?>
<hierarchy rotation="0">
  <node class="android.widget.FrameLayout" bounds="[0,0][1280,720]" enabled="true">
    <node class="android.widget.Button" text="OK" content-desc="Confirm" bounds="[590,330][690,390]" enabled="true" clickable="true" focused="true"/>
  </node>
</hierarchy>`

func TestParse_DumpFormat(t *testing.T) {
	roots, err := Parse(dumpFormatXML)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(roots) != 1 {
		t.Fatalf("expected 1 root, got %d", len(roots))
	}

	root := roots[0]
	if root.ClassName != "android.widget.FrameLayout" {
		t.Errorf("unexpected root class %q", root.ClassName)
	}
	if root.Package != "com.example.game" {
		t.Errorf("unexpected package %q", root.Package)
	}
	if root.Depth != 0 {
		t.Errorf("root depth = %d, want 0", root.Depth)
	}
	if len(root.Children) != 2 {
		t.Fatalf("expected 2 children, got %d", len(root.Children))
	}

	start := root.Children[0]
	if start.Text != "Start" || !start.Clickable || start.Depth != 1 {
		t.Errorf("unexpected start element %+v", start)
	}
	want := Bounds{X: 100, Y: 200, Width: 200, Height: 60}
	if start.Bounds != want {
		t.Errorf("bounds = %+v, want %+v", start.Bounds, want)
	}

	scroll := root.Children[1]
	if !scroll.Scrollable || len(scroll.Children) != 1 {
		t.Errorf("unexpected scroll element %+v", scroll)
	}
	if scroll.Children[0].Depth != 2 {
		t.Errorf("grandchild depth = %d, want 2", scroll.Children[0].Depth)
	}
}

func TestParse_NodeFormat(t *testing.T) {
	roots, err := Parse(nodeFormatXML)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(roots) != 1 || len(roots[0].Children) != 1 {
		t.Fatalf("unexpected tree shape")
	}

	button := roots[0].Children[0]
	if button.ClassName != "android.widget.Button" {
		t.Errorf("class attribute must override the node tag, got %q", button.ClassName)
	}
	if button.Text != "OK" || button.ContentDesc != "Confirm" || !button.Focused {
		t.Errorf("unexpected button %+v", button)
	}
}

func TestParse_MalformedXML(t *testing.T) {
	_, err := Parse("<hierarchy><node")
	if err == nil {
		t.Fatal("expected error for malformed XML")
	}
	if !errors.Is(err, core.ErrMalformedResponse) {
		t.Errorf("expected malformed response classification, got %v", err)
	}
}

func TestParse_MissingHierarchy(t *testing.T) {
	_, err := Parse(`<node class="android.view.View"/>`)
	if err == nil {
		t.Fatal("expected error when hierarchy element is absent")
	}
	if !errors.Is(err, core.ErrMalformedResponse) {
		t.Errorf("expected malformed response classification, got %v", err)
	}
}

func TestParseBounds(t *testing.T) {
	tests := []struct {
		in   string
		want Bounds
	}{
		{"[0,0][1280,720]", Bounds{0, 0, 1280, 720}},
		{"[100,200][300,260]", Bounds{100, 200, 200, 60}},
		{"not-bounds", Bounds{}},
		{"[1,2][3]", Bounds{}},
	}
	for _, tt := range tests {
		if got := parseBounds(tt.in); got != tt.want {
			t.Errorf("parseBounds(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}

func TestBoundsCenter(t *testing.T) {
	x, y := (Bounds{X: 100, Y: 200, Width: 200, Height: 60}).Center()
	if x != 200 || y != 230 {
		t.Errorf("Center() = (%d,%d), want (200,230)", x, y)
	}
}

func TestFindHelpers(t *testing.T) {
	roots, err := Parse(dumpFormatXML)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	byID := FindByResourceID(roots, "id/start")
	if len(byID) != 1 || byID[0].Text != "Start" {
		t.Errorf("FindByResourceID: got %d matches", len(byID))
	}

	byText := FindByText(roots, "item one")
	if len(byText) != 1 {
		t.Errorf("FindByText should match case-insensitively, got %d", len(byText))
	}

	scrollables := Scrollables(roots)
	if len(scrollables) != 1 || scrollables[0].ResourceID != "com.example.game:id/list" {
		t.Errorf("Scrollables: got %d matches", len(scrollables))
	}
}

func TestDeepest(t *testing.T) {
	roots, err := Parse(dumpFormatXML)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	all := Find(roots, func(*Element) bool { return true })
	deepest := Deepest(all)
	if deepest == nil || deepest.Text != "Item One" {
		t.Errorf("expected the grandchild to be deepest, got %+v", deepest)
	}

	if Deepest(nil) != nil {
		t.Error("Deepest(nil) must return nil")
	}
}

func TestWalk_StopsEarly(t *testing.T) {
	roots, err := Parse(dumpFormatXML)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	visited := 0
	Walk(roots, func(*Element) bool {
		visited++
		return visited < 2
	})
	if visited != 2 {
		t.Errorf("expected walk to stop after 2 visits, got %d", visited)
	}
}
