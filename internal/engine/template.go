package engine

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/spf13/cast"
)

const (
	eachOpen  = "{{#each"
	eachClose = "{{/each}}"
	ifOpen    = "{{#if"
	ifClose   = "{{/if}}"
	elseTok   = "{{else}}"
)

var varToken = regexp.MustCompile(`\{\{\s*([A-Za-z0-9_$][A-Za-z0-9_$.\-]*)\s*\}\}`)

// Process expande un markup con placeholders contra el contexto. El orden es
// fijo y no se puede tocar: primero loops, después condicionales, al final
// sustitución simple. Un condicional adentro de un loop depende de `this`, así
// que los loops tienen que expandirse antes; la sustitución va última para no
// tener que entender tokens de control.
//
// Sintaxis desconocida o bloques sin cerrar quedan tal cual en la salida:
// esto corre frente a clientes y una rotura visible es mejor que un crash.
func Process(markup string, ctx map[string]any) string {
	out := expandLoops(markup, ctx)
	out = expandConditionals(out, ctx)
	return substituteVars(out, ctx)
}

func expandLoops(markup string, ctx map[string]any) string {
	var b strings.Builder
	rest := markup
	for {
		i := strings.Index(rest, eachOpen)
		if i < 0 {
			b.WriteString(rest)
			return b.String()
		}
		b.WriteString(rest[:i])
		rest = rest[i:]

		path, headerLen, ok := parseBlockHeader(rest, eachOpen)
		if !ok {
			// Apertura malformada: se emite literal y se sigue de largo.
			b.WriteString(rest[:len(eachOpen)])
			rest = rest[len(eachOpen):]
			continue
		}
		body, afterLen, ok := matchBlock(rest[headerLen:], eachOpen, eachClose)
		if !ok {
			b.WriteString(rest[:headerLen])
			rest = rest[headerLen:]
			continue
		}

		items := toSlice(Resolve(path, ctx))
		for _, item := range items {
			child := make(map[string]any, len(ctx)+1)
			for k, v := range ctx {
				child[k] = v
			}
			child["this"] = item
			b.WriteString(Process(body, child))
		}
		rest = rest[headerLen+afterLen:]
	}
}

func expandConditionals(markup string, ctx map[string]any) string {
	var b strings.Builder
	rest := markup
	for {
		i := strings.Index(rest, ifOpen)
		if i < 0 {
			b.WriteString(rest)
			return b.String()
		}
		b.WriteString(rest[:i])
		rest = rest[i:]

		expr, headerLen, ok := parseBlockHeader(rest, ifOpen)
		if !ok {
			b.WriteString(rest[:len(ifOpen)])
			rest = rest[len(ifOpen):]
			continue
		}
		body, afterLen, ok := matchBlock(rest[headerLen:], ifOpen, ifClose)
		if !ok {
			b.WriteString(rest[:headerLen])
			rest = rest[headerLen:]
			continue
		}

		verdict, ok := evalCondition(expr, ctx)
		if !ok {
			// Helper desconocido o expresión ilegible: bloque completo verbatim.
			b.WriteString(rest[:headerLen+afterLen])
			rest = rest[headerLen+afterLen:]
			continue
		}

		thenBranch, elseBranch := splitElse(body)
		if verdict {
			b.WriteString(expandConditionals(thenBranch, ctx))
		} else {
			b.WriteString(expandConditionals(elseBranch, ctx))
		}
		rest = rest[headerLen+afterLen:]
	}
}

func substituteVars(markup string, ctx map[string]any) string {
	return varToken.ReplaceAllStringFunc(markup, func(tok string) string {
		m := varToken.FindStringSubmatch(tok)
		path := m[1]
		if path == "else" {
			return tok
		}
		return FormatValue(Resolve(path, ctx))
	})
}

// parseBlockHeader lee "{{#each path}}" o "{{#if expr}}" al comienzo de s y
// devuelve el argumento y el largo del header. Falla si no cierra con "}}" o
// si el token no viene seguido de espacio.
func parseBlockHeader(s, open string) (arg string, headerLen int, ok bool) {
	rest := s[len(open):]
	if len(rest) == 0 || (rest[0] != ' ' && rest[0] != '\t') {
		return "", 0, false
	}
	end := strings.Index(rest, "}}")
	if end < 0 {
		return "", 0, false
	}
	arg = strings.TrimSpace(rest[:end])
	if arg == "" {
		return "", 0, false
	}
	return arg, len(open) + end + 2, true
}

// matchBlock encuentra el cierre balanceado para un bloque cuyo header ya fue
// consumido. Devuelve el cuerpo y cuántos bytes avanza el cursor (cuerpo +
// cierre).
func matchBlock(s, open, close string) (body string, advance int, ok bool) {
	depth := 1
	pos := 0
	for {
		ci := strings.Index(s[pos:], close)
		if ci < 0 {
			return "", 0, false
		}
		oi := strings.Index(s[pos:], open)
		if oi >= 0 && oi < ci {
			depth++
			pos += oi + len(open)
			continue
		}
		depth--
		if depth == 0 {
			return s[:pos+ci], pos + ci + len(close), true
		}
		pos += ci + len(close)
	}
}

// splitElse corta el cuerpo de un if en la rama del {{else}} de primer nivel,
// ignorando los else de ifs anidados.
func splitElse(body string) (thenBranch, elseBranch string) {
	depth := 0
	for pos := 0; pos < len(body); {
		switch {
		case strings.HasPrefix(body[pos:], ifOpen):
			depth++
			pos += len(ifOpen)
		case strings.HasPrefix(body[pos:], ifClose):
			depth--
			pos += len(ifClose)
		case depth == 0 && strings.HasPrefix(body[pos:], elseTok):
			return body[:pos], body[pos+len(elseTok):]
		default:
			pos++
		}
	}
	return body, ""
}

// evalCondition soporta truthiness de un path pelado y los helpers eq, gt y
// lt con operandos path, string entre comillas o número literal. ok=false
// marca sintaxis que no se entiende y que debe quedar verbatim.
func evalCondition(expr string, ctx map[string]any) (verdict, ok bool) {
	fields := splitCondition(expr)
	switch len(fields) {
	case 1:
		return Truthy(Resolve(fields[0], ctx)), true
	case 3:
		a := operand(fields[1], ctx)
		b := operand(fields[2], ctx)
		switch fields[0] {
		case "eq":
			return equalValues(a, b), true
		case "gt":
			af, aerr := cast.ToFloat64E(a)
			bf, berr := cast.ToFloat64E(b)
			return aerr == nil && berr == nil && af > bf, true
		case "lt":
			af, aerr := cast.ToFloat64E(a)
			bf, berr := cast.ToFloat64E(b)
			return aerr == nil && berr == nil && af < bf, true
		}
	}
	return false, false
}

func equalValues(a, b any) bool {
	if af, aerr := cast.ToFloat64E(a); aerr == nil {
		if bf, berr := cast.ToFloat64E(b); berr == nil {
			return af == bf
		}
	}
	return FormatValue(a) == FormatValue(b)
}

// splitCondition separa por espacios respetando comillas simples y dobles.
func splitCondition(expr string) []string {
	var out []string
	var cur strings.Builder
	var quote byte
	for i := 0; i < len(expr); i++ {
		c := expr[i]
		switch {
		case quote != 0:
			cur.WriteByte(c)
			if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"':
			quote = c
			cur.WriteByte(c)
		case c == ' ' || c == '\t':
			if cur.Len() > 0 {
				out = append(out, cur.String())
				cur.Reset()
			}
		default:
			cur.WriteByte(c)
		}
	}
	if cur.Len() > 0 {
		out = append(out, cur.String())
	}
	return out
}

func operand(tok string, ctx map[string]any) any {
	if len(tok) >= 2 {
		if (tok[0] == '\'' && tok[len(tok)-1] == '\'') || (tok[0] == '"' && tok[len(tok)-1] == '"') {
			return tok[1 : len(tok)-1]
		}
	}
	if n, err := strconv.ParseFloat(tok, 64); err == nil {
		return n
	}
	return Resolve(tok, ctx)
}

func toSlice(v any) []any {
	switch x := v.(type) {
	case []any:
		return x
	case []map[string]any:
		out := make([]any, len(x))
		for i := range x {
			out[i] = x[i]
		}
		return out
	case []string:
		out := make([]any, len(x))
		for i := range x {
			out[i] = x[i]
		}
		return out
	}
	return nil
}
