package pipeline

import (
	"github.com/ironsheep/image-pipeline/internal/exception"
	"github.com/ironsheep/image-pipeline/internal/imagelist"
)

// imageScope is one saved image list. withSettings records that the "("
// also saved the settings, so the matching ")" restores them.
type imageScope struct {
	list         *imagelist.List
	withSettings bool
}

type stacks struct {
	images   []imageScope
	settings []*Settings
}

// pushImages saves the current list and starts an empty one.
func (c *CLI) pushImages() error {
	if len(c.stacks.images) >= c.maxDepth {
		return fail(exception.OptionFatalError, exception.ParenthesisNestedTooDeeply, "parenthesis nested too deeply")
	}
	scope := imageScope{list: c.list}
	if c.settings.Image.RespectParentheses {
		if err := c.pushSettings(); err != nil {
			return err
		}
		scope.withSettings = true
	}
	c.stacks.images = append(c.stacks.images, scope)
	c.list = imagelist.NewList()
	return nil
}

// popImages appends the current list to the saved one and makes the
// result current.
func (c *CLI) popImages() error {
	n := len(c.stacks.images)
	if n == 0 {
		return fail(exception.OptionFatalError, exception.UnbalancedParenthesis, "unbalanced parenthesis")
	}
	scope := c.stacks.images[n-1]
	if scope.withSettings {
		if err := c.popSettings(); err != nil {
			return err
		}
	}
	c.stacks.images = c.stacks.images[:n-1]
	joined := scope.list.Clone()
	joined.Concat(c.list)
	c.list = joined
	return nil
}

// pushSettings saves a copy of the current settings.
func (c *CLI) pushSettings() error {
	if len(c.stacks.settings) >= c.maxDepth {
		return fail(exception.OptionFatalError, exception.CurlyBracesNestedTooDeeply, "curly braces nested too deeply")
	}
	c.stacks.settings = append(c.stacks.settings, c.settings.Clone())
	return nil
}

// popSettings discards the current settings and restores the saved ones.
func (c *CLI) popSettings() error {
	n := len(c.stacks.settings)
	if n == 0 {
		return fail(exception.OptionFatalError, exception.UnbalancedCurlyBraces, "unbalanced curly braces")
	}
	c.settings.Release()
	c.settings = c.stacks.settings[n-1]
	c.stacks.settings = c.stacks.settings[:n-1]
	c.applyRuntimeSettings()
	return nil
}

// scopeParent returns the list saved by the innermost "(".
func (c *CLI) scopeParent() (*imagelist.List, bool) {
	n := len(c.stacks.images)
	if n == 0 {
		return nil, false
	}
	return c.stacks.images[n-1].list, true
}

// CheckBalanced records an exception for every scope still open and
// reports whether both stacks were empty.
func (c *CLI) CheckBalanced() bool {
	ok := true
	if len(c.stacks.images) > 0 {
		c.sink.Throw(exception.OptionFatalError, exception.UnbalancedParenthesis, "(", "")
		ok = false
	}
	owned := 0
	for _, scope := range c.stacks.images {
		if scope.withSettings {
			owned++
		}
	}
	if len(c.stacks.settings) > owned {
		c.sink.Throw(exception.OptionFatalError, exception.UnbalancedCurlyBraces, "{", "")
		ok = false
	}
	return ok
}
