// Package hierarchy parses the UI hierarchy XML the on-device agent
// returns into an element tree the bot can search for gesture targets.
package hierarchy

import (
	"encoding/xml"
	"io"
	"strconv"
	"strings"

	"github.com/devicelab-dev/droidpilot/pkg/core"
)

// Bounds is an element's on-screen rectangle.
type Bounds struct {
	X      int
	Y      int
	Width  int
	Height int
}

// Center returns the midpoint of the rectangle, the default tap target.
func (b Bounds) Center() (int, int) {
	return b.X + b.Width/2, b.Y + b.Height/2
}

// Empty reports whether the rectangle has no area.
func (b Bounds) Empty() bool {
	return b.Width <= 0 || b.Height <= 0
}

// Element is one node of the parsed hierarchy.
// Supports both dump formats the agent emits:
//   - uiautomator dump: class name as element tag (e.g. <android.widget.FrameLayout>)
//   - agent format: <node> elements with a class attribute
type Element struct {
	ClassName   string
	Text        string
	ResourceID  string
	ContentDesc string
	Package     string
	Bounds      Bounds
	Enabled     bool
	Focused     bool
	Clickable   bool
	Scrollable  bool
	Children    []*Element
	Depth       int
}

// Parse decodes hierarchy XML into its root elements. Malformed or
// empty XML yields a malformed-response error so callers treat it like
// any other corrupt agent payload.
func Parse(xmlData string) ([]*Element, error) {
	decoder := xml.NewDecoder(strings.NewReader(xmlData))

	var roots []*Element
	foundHierarchy := false

	var parseElement func(depth int) (*Element, error)
	parseElement = func(depth int) (*Element, error) {
		for {
			token, err := decoder.Token()
			if err != nil {
				return nil, err
			}

			switch t := token.(type) {
			case xml.StartElement:
				if t.Name.Local == "hierarchy" {
					foundHierarchy = true
					continue
				}

				elem := &Element{
					ClassName: t.Name.Local,
					Depth:     depth,
				}
				for _, attr := range t.Attr {
					switch attr.Name.Local {
					case "class":
						elem.ClassName = attr.Value
					case "text":
						elem.Text = attr.Value
					case "resource-id":
						elem.ResourceID = attr.Value
					case "content-desc":
						elem.ContentDesc = attr.Value
					case "package":
						elem.Package = attr.Value
					case "bounds":
						elem.Bounds = parseBounds(attr.Value)
					case "enabled":
						elem.Enabled = attr.Value == "true"
					case "focused":
						elem.Focused = attr.Value == "true"
					case "clickable":
						elem.Clickable = attr.Value == "true"
					case "scrollable":
						elem.Scrollable = attr.Value == "true"
					}
				}

				for {
					child, err := parseElement(depth + 1)
					if err != nil || child == nil {
						break
					}
					elem.Children = append(elem.Children, child)
				}
				return elem, nil

			case xml.EndElement:
				return nil, nil
			}
		}
	}

	var parseErr error
	for {
		elem, err := parseElement(0)
		if err != nil {
			if err != io.EOF {
				parseErr = err
			}
			break
		}
		if elem != nil {
			roots = append(roots, elem)
		}
	}

	if parseErr != nil && len(roots) == 0 {
		return nil, core.ErrMalformedResponse.WithCause(parseErr)
	}
	if !foundHierarchy {
		return nil, core.ErrMalformedResponse.WithMessage("hierarchy dump has no hierarchy element")
	}
	return roots, nil
}

// parseBounds reads the Android bounds string "[x1,y1][x2,y2]".
func parseBounds(s string) Bounds {
	s = strings.ReplaceAll(s, "][", ",")
	s = strings.Trim(s, "[]")
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return Bounds{}
	}

	x1, _ := strconv.Atoi(parts[0])
	y1, _ := strconv.Atoi(parts[1])
	x2, _ := strconv.Atoi(parts[2])
	y2, _ := strconv.Atoi(parts[3])
	return Bounds{X: x1, Y: y1, Width: x2 - x1, Height: y2 - y1}
}

// Walk visits every element depth-first. Returning false from visit
// stops the walk.
func Walk(roots []*Element, visit func(*Element) bool) {
	var walk func(*Element) bool
	walk = func(e *Element) bool {
		if !visit(e) {
			return false
		}
		for _, child := range e.Children {
			if !walk(child) {
				return false
			}
		}
		return true
	}
	for _, root := range roots {
		if !walk(root) {
			return
		}
	}
}

// Find returns all elements matching the predicate, in document order.
func Find(roots []*Element, match func(*Element) bool) []*Element {
	var result []*Element
	Walk(roots, func(e *Element) bool {
		if match(e) {
			result = append(result, e)
		}
		return true
	})
	return result
}

// FindByResourceID returns elements whose resource-id contains id.
func FindByResourceID(roots []*Element, id string) []*Element {
	return Find(roots, func(e *Element) bool {
		return strings.Contains(e.ResourceID, id)
	})
}

// FindByText returns elements whose text or content-desc contains the
// given text, case-insensitively.
func FindByText(roots []*Element, text string) []*Element {
	lower := strings.ToLower(text)
	return Find(roots, func(e *Element) bool {
		return strings.Contains(strings.ToLower(e.Text), lower) ||
			strings.Contains(strings.ToLower(e.ContentDesc), lower)
	})
}

// Deepest returns the deepest element in the list, preferring the more
// specific child when a container matched too.
func Deepest(elements []*Element) *Element {
	if len(elements) == 0 {
		return nil
	}
	deepest := elements[0]
	for _, elem := range elements[1:] {
		if elem.Depth > deepest.Depth {
			deepest = elem
		}
	}
	return deepest
}

// Scrollables returns elements marked scrollable with a visible area,
// candidates for swipe containers.
func Scrollables(roots []*Element) []*Element {
	return Find(roots, func(e *Element) bool {
		return e.Scrollable && !e.Bounds.Empty()
	})
}
