package internal

import (
	"errors"
)

// NewCompositionCompiler builds the compiler for a function-bound
// composition tag: {% name args... %}...{% endname %} renders
// templateName with the values fn returns. The arguments written in the
// tag are checked against sig once per use when the template is parsed
// and bound again with their values on every render.
func NewCompositionCompiler(tagName, templateName string, fn CompositionFunc, sig Signature, takesContext bool) (TagCompiler, error) {
	if tagName == StringValueEmpty {
		return nil, NewRegistryError(ErrMsgEmptyTagName, StringValueEmpty)
	}
	if fn == nil {
		return nil, NewRegistryError(ErrMsgNilCompositionFunc, tagName)
	}
	stripped, err := sig.Strip(takesContext)
	if err != nil {
		var re *RegistryError
		if errors.As(err, &re) && re.TagName == StringValueEmpty {
			re.TagName = tagName
		}
		return nil, err
	}

	endTag := TagEndPrefix + tagName

	return func(p *Parser, tok Token) (Node, error) {
		var args []*Expression
		var kwargs []KeywordArg
		seen := make(map[string]struct{})

		for _, bit := range tok.SplitContents()[1:] {
			if name, value, ok := SplitKeyword(bit); ok {
				if name == KeyChildren {
					return nil, NewSyntaxError(ErrMsgChildrenKeyword, tagName, tok.Position)
				}
				if _, dup := seen[name]; dup {
					return nil, NewSyntaxErrorf(tagName, tok.Position, ErrFmtTagMessage, ErrMsgMultipleValues, name)
				}
				seen[name] = struct{}{}
				e, err := p.CompileExpression(value, tok)
				if err != nil {
					return nil, err
				}
				kwargs = append(kwargs, KeywordArg{Name: name, Expr: e})
				continue
			}

			if len(kwargs) > 0 {
				return nil, NewSyntaxError(ErrMsgPositionalAfterKw, tagName, tok.Position)
			}
			e, err := p.CompileExpression(bit, tok)
			if err != nil {
				return nil, err
			}
			args = append(args, e)
		}

		if err := checkBinding(stripped, len(args), kwargs); err != nil {
			var be *BindError
			if errors.As(err, &be) {
				return nil, NewSyntaxError(be.Error(), tagName, tok.Position)
			}
			return nil, err
		}

		target, err := literalTemplateExpression(p, templateName, tok)
		if err != nil {
			return nil, err
		}

		body, err := p.ParseUntil(endTag)
		if err != nil {
			return nil, err
		}
		p.NextToken()

		return &ComposeNode{
			pos:          tok.Position,
			TagName:      tagName,
			Origin:       p.Origin(),
			Template:     target,
			Func:         fn,
			Sig:          stripped,
			TakesContext: takesContext,
			Args:         args,
			Kwargs:       kwargs,
			Body:         body,
		}, nil
	}, nil
}

// checkBinding binds placeholder values so arity, keyword and missing
// parameter mismatches surface when the template is parsed. Slots cannot
// supply required parameters; give them defaults instead.
func checkBinding(sig Signature, nargs int, kwargs []KeywordArg) error {
	placeholders := make(KeywordValues, 0, len(kwargs))
	for _, kw := range kwargs {
		placeholders = append(placeholders, KeywordValue{Name: kw.Name})
	}
	_, err := sig.Bind(make([]any, nargs), placeholders)
	return err
}
