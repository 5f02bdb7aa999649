package wire

import "errors"

// splitSignature splits a signature string into its top-level complete
// type elements, e.g. "a{sv}i(uu)" -> ["a{sv}", "i", "(uu)"].
func splitSignature(sig string) ([]string, error) {
	var out []string
	for len(sig) > 0 {
		n, err := elementLength(sig)
		if err != nil {
			return nil, err
		}
		out = append(out, sig[:n])
		sig = sig[n:]
	}
	return out, nil
}

// elementLength returns the length, in bytes, of the single complete type
// at the start of sig.
func elementLength(sig string) (int, error) {
	if len(sig) == 0 {
		return 0, errors.New("wire: empty signature")
	}
	switch sig[0] {
	case 'y', 'b', 'n', 'q', 'i', 'u', 'x', 't', 'd', 's', 'o', 'g', 'v', 'h':
		return 1, nil
	case 'a':
		if len(sig) < 2 {
			return 0, errors.New("wire: truncated array signature")
		}
		n, err := elementLength(sig[1:])
		if err != nil {
			return 0, err
		}
		return n + 1, nil
	case '(':
		return matchedLength(sig, '(', ')')
	case '{':
		return matchedLength(sig, '{', '}')
	}
	return 0, errors.New("wire: invalid signature byte " + string(sig[0]))
}

func matchedLength(sig string, open, close byte) (int, error) {
	depth := 0
	for i := 0; i < len(sig); i++ {
		switch sig[i] {
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return i + 1, nil
			}
		}
	}
	return 0, errors.New("wire: unbalanced signature")
}

// splitParen strips the outer "(" ")" from a struct signature and returns
// its contents plus the (empty) remainder.
func splitParen(sig string) (string, string, error) {
	if len(sig) < 2 || sig[0] != '(' || sig[len(sig)-1] != ')' {
		return "", "", errors.New("wire: not a struct signature")
	}
	return sig[1 : len(sig)-1], "", nil
}

// splitBrace strips the outer "{" "}" from a dict-entry signature.
func splitBrace(arraySig string) (string, string, error) {
	if len(arraySig) < 2 || arraySig[0] != '{' || arraySig[len(arraySig)-1] != '}' {
		return "", "", errors.New("wire: not a dict-entry signature")
	}
	return arraySig[1 : len(arraySig)-1], "", nil
}

// splitDictEntry splits a dict-entry's inner signature ("sv") into its key
// and value type elements.
func splitDictEntry(inner string) (key string, value string, err error) {
	n, err := elementLength(inner)
	if err != nil {
		return "", "", err
	}
	return inner[:n], inner[n:], nil
}
