package workflow

import "strings"

// InjectImage binds path to the document's image-loading node: the node
// named "Load Image", else the first node whose class names image loading,
// else the first node exposing a keyed "image" input. Writes the keyed
// input in mapping form or the first widget value in widget form. A miss
// is logged, never fatal.
func (d *Document) InjectImage(path string, logf Logf) {
	n := d.findLoadImageNode()
	if n == nil {
		logf.printf("load image node not found for injection")
		return
	}

	if n.Inputs.Kind == InputsKeyed {
		n.Inputs.Keyed["image"] = path
		logf.printf("injected image into node %q: %s", n.DisplayName(), path)
		return
	}
	if len(n.Widgets) > 0 {
		n.Widgets[0] = path
		logf.printf("injected image via widget into node %q", n.DisplayName())
		return
	}
	logf.printf("node %q has no injectable image input", n.DisplayName())
}

func (d *Document) findLoadImageNode() *Node {
	if n := d.Find("Load Image"); n != nil {
		return n
	}
	for _, n := range d.Nodes {
		class := strings.ToLower(n.Class)
		if strings.Contains(class, "loadimage") || strings.Contains(class, "load image") {
			return n
		}
		if n.Inputs.Kind == InputsKeyed {
			if _, ok := n.Inputs.Keyed["image"]; ok {
				return n
			}
		}
	}
	return nil
}

// InjectPrompt binds text to the document's prompt node: the node named
// "Prompt", else the first node exposing a "text" input (keyed or named
// port), else the first CLIPTextEncode node. Keyed inputs are preferred,
// then port values, then the first widget value.
func (d *Document) InjectPrompt(text string, logf Logf) {
	n := d.findPromptNode()
	if n == nil {
		logf.printf("prompt node not found; prompt not injected")
		return
	}

	if n.Inputs.Kind == InputsKeyed {
		n.Inputs.Keyed["text"] = text
		logf.printf("injected prompt into node %q (keyed inputs)", n.DisplayName())
		return
	}
	if n.Inputs.Kind == InputsPositional {
		for _, p := range n.Inputs.Ports {
			if p.Name != "text" {
				continue
			}
			p.Value = text
			p.HasValue = true
			// Keep the widget slot in sync so positional compilation
			// agrees with the port value.
			if len(n.Widgets) > 0 {
				n.Widgets[0] = text
			}
			logf.printf("injected prompt into node %q (port inputs)", n.DisplayName())
			return
		}
	}
	if len(n.Widgets) > 0 {
		n.Widgets[0] = text
		logf.printf("injected prompt into node %q (widget)", n.DisplayName())
		return
	}
	logf.printf("node %q has no injectable prompt input", n.DisplayName())
}

func (d *Document) findPromptNode() *Node {
	if n := d.Find("Prompt"); n != nil {
		return n
	}
	for _, n := range d.Nodes {
		switch n.Inputs.Kind {
		case InputsKeyed:
			if _, ok := n.Inputs.Keyed["text"]; ok {
				return n
			}
		case InputsPositional:
			for _, p := range n.Inputs.Ports {
				if p.Name == "text" {
					return n
				}
			}
		}
		if n.Class == "CLIPTextEncode" {
			return n
		}
	}
	return nil
}
