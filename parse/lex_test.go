// Copyright 2020-2021 Dolthub, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package parse

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lexAll(t *testing.T, src string) []*Token {
	t.Helper()
	toks, err := NewLexer(strings.NewReader(src)).Run()
	require.NoError(t, err)
	return toks
}

func tokenTypes(toks []*Token) []TokenType {
	types := make([]TokenType, len(toks))
	for i, tok := range toks {
		types[i] = tok.Type
	}
	return types
}

func TestLexKeywordsAndIdentifiers(t *testing.T) {
	toks := lexAll(t, "FOR doc IN users")
	assert.Equal(t, []TokenType{KeywordToken, IdentifierToken, KeywordToken, IdentifierToken, EOFToken}, tokenTypes(toks))
	assert.Equal(t, "doc", toks[1].Value)
	assert.Equal(t, "users", toks[3].Value)
}

func TestLexCaseInsensitiveKeyword(t *testing.T) {
	toks := lexAll(t, "for Doc in users")
	assert.Equal(t, KeywordToken, toks[0].Type)
	assert.Equal(t, IdentifierToken, toks[1].Type)
	assert.Equal(t, KeywordToken, toks[2].Type)
}

func TestLexNumbers(t *testing.T) {
	toks := lexAll(t, "42 3.14 0")
	require.Len(t, toks, 4)
	assert.Equal(t, IntToken, toks[0].Type)
	assert.Equal(t, "42", toks[0].Value)
	assert.Equal(t, FloatToken, toks[1].Type)
	assert.Equal(t, "3.14", toks[1].Value)
	assert.Equal(t, IntToken, toks[2].Type)
}

func TestLexMalformedNumber(t *testing.T) {
	toks := lexAll(t, "42abc")
	require.Len(t, toks, 2)
	assert.Equal(t, ErrorToken, toks[0].Type)
}

func TestLexRangeVsDot(t *testing.T) {
	toks := lexAll(t, "1..10")
	require.Len(t, toks, 4)
	assert.Equal(t, IntToken, toks[0].Type)
	assert.Equal(t, RangeToken, toks[1].Type)
	assert.Equal(t, IntToken, toks[2].Type)

	toks = lexAll(t, "doc.name")
	require.Len(t, toks, 4)
	assert.Equal(t, DotToken, toks[1].Type)
}

func TestLexBindVar(t *testing.T) {
	toks := lexAll(t, "@userId")
	require.Len(t, toks, 2)
	assert.Equal(t, BindVarToken, toks[0].Type)
	assert.Equal(t, "userId", toks[0].Value)
}

func TestLexStringEscapes(t *testing.T) {
	toks := lexAll(t, `"hello\nworld" 'it\'s'`)
	require.Len(t, toks, 3)
	assert.Equal(t, "world", Unquote(toks[0].Value)[6:])
	assert.Equal(t, "it's", Unquote(toks[1].Value))
}

func TestLexUnterminatedString(t *testing.T) {
	_, err := NewLexer(strings.NewReader(`"unterminated`)).Run()
	assert.Error(t, err)
}

func TestLexOperators(t *testing.T) {
	toks := lexAll(t, "== != <= >= < > = + - * / % **")
	types := tokenTypes(toks)
	for _, typ := range types[:len(types)-1] {
		assert.Equal(t, OpToken, typ)
	}
}

func TestLexPunctuation(t *testing.T) {
	toks := lexAll(t, "[ ] { } ( ) , :")
	want := []TokenType{
		LeftBracketToken, RightBracketToken, LeftBraceToken, RightBraceToken,
		LeftParenToken, RightParenToken, CommaToken, ColonToken, EOFToken,
	}
	assert.Equal(t, want, tokenTypes(toks))
}
