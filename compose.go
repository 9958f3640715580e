// Package compose is a Django-style template engine built around
// component composition.
//
// A template invokes another template as a component with the compose tag,
// passing keyword arguments and a body. Inside the body, slot tags fill
// named parameters of the component:
//
//	{% compose "card.html" title="Hello" %}
//	    {% slot footer %}<a href="/more">more</a>{% endslot %}
//	    Card body text
//	{% endcompose %}
//
// card.html then sees title, footer and children (the rendered body with
// the slots removed):
//
//	<div class="card"><h1>{{ title }}</h1>{{ children }}<footer>{{ footer }}</footer></div>
//
// # Basic Usage
//
//	engine := compose.MustNew(compose.WithLoader(compose.NewFilesystemLoader("templates")))
//	out, err := engine.Render(ctx, "page.html", map[string]any{"user": "Alice"})
//
// # Slots
//
// {% slot name %}...{% endslot %} fills a single keyword. {% slot[] name %}
// appends to a list keyword, so it may appear several times (for example
// inside a for loop). Slots must sit inside a composition body.
//
// # Composition Tags
//
// A Go function can be bound to a template and registered as its own tag:
//
//	engine.Library().CompositionTag("panel.html", panel,
//	    compose.Signature{Params: []compose.Param{compose.Required("children"), compose.Required("title")}},
//	    compose.WithTagName("panel"))
//
//	{% panel title="Settings" %}body{% endpanel %}
//
// # Template Names
//
// Names starting with "./" or "../" are resolved against the name of the
// template containing the tag. Names that escape the template root are
// rejected.
//
// # Expressions
//
// Variables and tag arguments are expressions evaluated with expr-lang.
// True, False and None are always defined. The functions safe, escape and
// sanitize control HTML escaping of rendered values.
package compose
