// Copyright (C) 2021  Antonio Lassandro

// This program is free software: you can redistribute it and/or modify it
// under the terms of the GNU General Public License as published by the Free
// Software Foundation, either version 3 of the License, or (at your option)
// any later version.

// This program is distributed in the hope that it will be useful, but WITHOUT
// ANY WARRANTY; without even the implied warranty of MERCHANTABILITY or
// FITNESS FOR A PARTICULAR PURPOSE.  See the GNU General Public License for
// more details.

// You should have received a copy of the GNU General Public License along
// with this program.  If not, see <http://www.gnu.org/licenses/>.

package assembler

import (
	"bufio"
	"io"
	"strconv"
	"strings"
	"unicode"

	"github.com/lassandro/goc8/pkg/encoding"
	"github.com/lassandro/goc8/pkg/machine"
)

func parseDirective(ident string) DirectiveType {
	if strings.EqualFold(ident, ".ORIG") {
		return DIRECTIVE_ORIG
	} else if strings.EqualFold(ident, ".BYTE") {
		return DIRECTIVE_BYTE
	} else if strings.EqualFold(ident, ".WORD") {
		return DIRECTIVE_WORD
	} else if strings.EqualFold(ident, ".END") {
		return DIRECTIVE_END
	}

	return DIRECTIVE_INVALID
}

func parseInstruction(ident string) InstructionType {
	if strings.EqualFold(ident, "CLS") {
		return INSTRUCTION_CLS
	} else if strings.EqualFold(ident, "RET") {
		return INSTRUCTION_RET
	} else if strings.EqualFold(ident, "JP") {
		return INSTRUCTION_JP
	} else if strings.EqualFold(ident, "CALL") {
		return INSTRUCTION_CALL
	} else if strings.EqualFold(ident, "SE") {
		return INSTRUCTION_SE
	} else if strings.EqualFold(ident, "SNE") {
		return INSTRUCTION_SNE
	} else if strings.EqualFold(ident, "LD") {
		return INSTRUCTION_LD
	} else if strings.EqualFold(ident, "ADD") {
		return INSTRUCTION_ADD
	} else if strings.EqualFold(ident, "OR") {
		return INSTRUCTION_OR
	} else if strings.EqualFold(ident, "AND") {
		return INSTRUCTION_AND
	} else if strings.EqualFold(ident, "XOR") {
		return INSTRUCTION_XOR
	} else if strings.EqualFold(ident, "SUB") {
		return INSTRUCTION_SUB
	} else if strings.EqualFold(ident, "SUBN") {
		return INSTRUCTION_SUBN
	} else if strings.EqualFold(ident, "SHR") {
		return INSTRUCTION_SHR
	} else if strings.EqualFold(ident, "SHL") {
		return INSTRUCTION_SHL
	} else if strings.EqualFold(ident, "RND") {
		return INSTRUCTION_RND
	} else if strings.EqualFold(ident, "DRW") {
		return INSTRUCTION_DRW
	} else if strings.EqualFold(ident, "SKP") {
		return INSTRUCTION_SKP
	} else if strings.EqualFold(ident, "SKNP") {
		return INSTRUCTION_SKNP
	}

	return INSTRUCTION_INVALID
}

func parseLiteral(token *Token, bits LiteralType) (uint16, error) {
	if strings.ContainsAny(token.Value, "xX") {
		result, err := encoding.DecodeHex(token.Value)

		if err != nil {
			return 0, &InvalidLiteralError{token.Position}
		}

		if bits < 16 {
			limit := uint16(1) << bits

			if result >= limit {
				return 0, &OversizedLiteralError{
					token.Position, limit - 1, result,
				}
			}
		}

		return result, nil
	} else {
		result, err := encoding.DecodeInt(token.Value)

		if err != nil {
			return 0, &InvalidLiteralError{token.Position}
		}

		if bits < 16 {
			limit := int16(1) << bits

			if result < 0 || result >= limit {
				return 0, &OversizedLiteralError{
					token.Position, limit - 1, result,
				}
			}
		}

		return uint16(result), nil
	}
}

func parseRegister(token *Token) (uint16, bool) {
	ident := token.Value

	if len(ident) != 2 {
		return 0, false
	}

	if ident[0] != 'V' && ident[0] != 'v' {
		return 0, false
	}

	value, err := strconv.ParseUint(ident[1:], 16, 8)

	if err != nil || value > 0xF {
		return 0, false
	}

	return uint16(value), true
}

// Matches special operand keywords such as I, DT, ST, K, F, B and [I]
func matchKeyword(token *Token, keyword string) bool {
	return token.Type == TOKEN_IDENT && strings.EqualFold(token.Value, keyword)
}

func AssembleChip8Source(input io.ReadSeeker, symtable *SymTable) (result []byte, errs []error) {
	type LabelRef struct {
		Label    string
		Addr     uint16
		Size     LiteralType
		Position Cursor
	}

	type WordRef struct {
		Label    string
		Addr     uint16
		Position Cursor
	}

	var labels = make(map[string]uint16)
	var labelRefs []LabelRef
	var wordRefs []WordRef

	var program = uint32(machine.ProgramStart)
	var end = program

	var builder strings.Builder
	var scanner = bufio.NewScanner(input)

	var cursor = Cursor{Line: 1, Column: 0, Size: 0, Byte: 0}

	image := make([]byte, machine.MemorySize)
	errs = make([]error, 0)

	// Process:
	// - Parse line
	// - Assemble line
	for scanner.Scan() {
		var tokens = make([]Token, 0, 5)
		var tokenStart int = 0
		var tokenType TokenType = TOKEN_NONE

		var lineErrs = len(errs)

		line := scanner.Text()
		builder.Grow(len(line))

		cursor.Size = int64(len(line))

		// Parse Line:
		// - Gather tokens and their types
		// - Check for syntax errors
		for column, char := range line {
			cursor.Column = column + 1

			var flush bool = false
			var skip bool = false

			if tokenType == TOKEN_NONE {
				tokenStart = cursor.Column
			}

			switch {
			// Whitespace
			case unicode.IsSpace(char):
				if tokenType == TOKEN_NONE {
					continue
				} else if tokenType != TOKEN_STRING {
					flush = true
				}

			// Comments
			case char == ';':
				if tokenType == TOKEN_NONE {
					skip = true
				} else if tokenType != TOKEN_STRING {
					flush = true
					skip = true
				}

			// Assembler Directives
			case char == '.':
				if tokenType == TOKEN_NONE {
					tokenType = TOKEN_DIRECTIVE
				} else if tokenType != TOKEN_STRING {
					errs = append(errs, &UnexpectedCharacterError{cursor, char})
				}

			// Operand Separator
			case char == ',':
				if tokenType != TOKEN_STRING {
					flush = true
				}

			// Indirect Operand (i.e. [I])
			case char == '[':
				if tokenType == TOKEN_NONE {
					tokenType = TOKEN_IDENT
				} else if tokenType != TOKEN_STRING {
					errs = append(errs, &UnexpectedCharacterError{cursor, char})
				}

			case char == ']':
				if tokenType != TOKEN_IDENT && tokenType != TOKEN_STRING {
					errs = append(errs, &UnexpectedCharacterError{cursor, char})
				}

			// Hex Literal (i.e. x2A, no leading zero)
			case char == 'x' || char == 'X':
				if tokenType == TOKEN_NONE {
					tokenType = TOKEN_LITERAL
				}

			// Base 10 Literal (i.e. #42)
			case char == '#':
				if tokenType == TOKEN_NONE {
					tokenType = TOKEN_LITERAL
				} else if tokenType != TOKEN_STRING {
					errs = append(errs, &UnexpectedCharacterError{cursor, char})
				}

			// String Literal
			case char == '"':
				if tokenType == TOKEN_NONE {
					tokenType = TOKEN_STRING
				} else if tokenType == TOKEN_STRING {
					flush = true
				} else {
					errs = append(errs, &UnexpectedCharacterError{cursor, char})
				}

			// Numeric Literal
			case unicode.IsDigit(char):
				if tokenType == TOKEN_NONE {
					tokenType = TOKEN_LITERAL
				}

			// Numeric Sign
			case char == '-':
				if tokenType != TOKEN_LITERAL {
					errs = append(errs, &UnexpectedCharacterError{cursor, char})
				}

			// Underscore'd Identifier
			case char == '_':
				if tokenType == TOKEN_NONE {
					tokenType = TOKEN_IDENT
				} else if tokenType != TOKEN_IDENT && tokenType != TOKEN_STRING {
					errs = append(errs, &UnexpectedCharacterError{cursor, char})
				}

			// Identifier
			case unicode.IsLetter(char):
				if char > unicode.MaxASCII {
					errs = append(errs, &OversizedCharacterError{cursor})
				}

				if tokenType == TOKEN_NONE {
					tokenType = TOKEN_IDENT
				}

			default:
				if char > unicode.MaxASCII {
					errs = append(errs, &OversizedCharacterError{cursor})
				}

				if tokenType != TOKEN_STRING {
					errs = append(
						errs, &UnexpectedCharacterError{cursor, char},
					)
				}
			}

			if cursor.Column == len(line) {
				if tokenType == TOKEN_STRING {
					if char != '"' || tokenStart == cursor.Column {
						errs = append(errs, &InvalidStringError{cursor})
					}
				} else {
					if char == ',' {
						errs = append(
							errs, &UnexpectedCharacterError{cursor, char},
						)
					}
				}

				flush = true
				builder.WriteRune(char)
			} else {
				if flush && tokenType == TOKEN_STRING && char == '"' {
					builder.WriteRune(char)
				}
			}

			if flush {
				if builder.Len() > 0 {
					var token Token
					token.Position = Cursor{
						Line:     cursor.Line,
						Column:   tokenStart,
						Byte:     cursor.Byte + int64(tokenStart-1),
						Size:     int64(builder.Len()),
						LineByte: cursor.Byte,
					}
					token.Type = tokenType
					token.Value = builder.String()
					tokens = append(tokens, token)
					builder.Reset()
				}

				flush = false
				tokenType = TOKEN_NONE
			} else if !skip {
				builder.WriteRune(char)
			}

			if skip {
				break
			}
		}

		if len(tokens) == 0 {
			cursor.Line++
			cursor.Byte += int64(len(line) + 1)
			cursor.LineByte += int64(len(line) + 1)
			continue
		}

		// Pass any potential assembler errors if we already had parser errors
		if len(errs) > lineErrs {
			cursor.Line++
			cursor.Byte += int64(len(line) + 1)
			cursor.LineByte += int64(len(line) + 1)
			continue
		}

		// Assemble line
		// - Write instruction bytes to the memory image
		// - Save label refs for unknown labels
		// - Type check instruction arguments
		var label *Token = nil
		var directive DirectiveType
		var instruction InstructionType
		var keyword *Token = nil
		var operands []Token

		var scratch uint16 = 0

		if instruction = parseInstruction(tokens[0].Value); instruction != INSTRUCTION_INVALID {
			keyword = &tokens[0]

			if len(tokens) > 1 {
				operands = tokens[1:]
			}
		} else if directive = parseDirective(tokens[0].Value); directive != DIRECTIVE_INVALID {
			keyword = &tokens[0]

			if len(tokens) > 1 {
				operands = tokens[1:]
			}
		} else {
			label = &tokens[0]
		}

		if label != nil {
			if _, exists := labels[label.Value]; !exists {
				labels[label.Value] = uint16(program)
			} else {
				errs = append(
					errs, &RedeclaredLabelError{label.Position, label.Value},
				)
			}

			// No need to assemble label-only statements
			if len(tokens) == 1 {
				cursor.Line++
				cursor.Byte += int64(len(line) + 1)
				cursor.LineByte += int64(len(line) + 1)
				continue
			}

			if instruction = parseInstruction(tokens[1].Value); instruction != INSTRUCTION_INVALID {
				keyword = &tokens[1]

				if len(tokens) > 2 {
					operands = tokens[2:]
				}
			} else if directive = parseDirective(tokens[1].Value); directive != DIRECTIVE_INVALID {
				keyword = &tokens[1]

				if len(tokens) > 2 {
					operands = tokens[2:]
				}
			}
		}

		if keyword == nil {
			errs = append(
				errs,
				&UnknownIdentifierError{tokens[0].Position, tokens[0].Value},
			)
		}

		if directive == DIRECTIVE_END {
			if count := len(operands); count != 0 {
				errs = append(
					errs, &InvalidNumArgumentsError{keyword.Position, 0, count},
				)
			}

			break
		}

		switch directive {
		// .ORIG #
		case DIRECTIVE_ORIG:
			if count := len(operands); count != 1 {
				errs = append(
					errs, &InvalidNumArgumentsError{keyword.Position, 1, count},
				)

				break
			}

			if operands[0].Type != TOKEN_LITERAL {
				errs = append(
					errs,
					&InvalidOperandError{
						operands[0].Position,
						[]TokenType{TOKEN_LITERAL},
						operands[0].Type,
					},
				)

				break
			}

			literal, err := parseLiteral(&operands[0], LITERAL_ADDR)

			if err != nil {
				errs = append(errs, err)
			}

			program = uint32(literal)

		// .BYTE # [# ...]
		case DIRECTIVE_BYTE:
			if count := len(operands); count < 1 {
				errs = append(
					errs, &InvalidNumArgumentsError{keyword.Position, 1, count},
				)

				break
			}

			for i, _ := range operands {
				if operands[i].Type != TOKEN_LITERAL {
					errs = append(
						errs,
						&InvalidOperandError{
							operands[i].Position,
							[]TokenType{TOKEN_LITERAL},
							operands[i].Type,
						},
					)

					continue
				}

				literal, err := parseLiteral(&operands[i], LITERAL_BYTE)

				if err != nil {
					errs = append(errs, err)
				}

				if int(program) >= len(image) {
					errs = append(errs, &OversizedBinaryError{})
					return
				}

				image[program] = byte(literal)
				program++
			}

			if program > end {
				end = program
			}

		// .WORD # | .WORD LABEL
		case DIRECTIVE_WORD:
			if count := len(operands); count != 1 {
				errs = append(
					errs, &InvalidNumArgumentsError{keyword.Position, 1, count},
				)

				break
			}

			if int(program)+1 >= len(image) {
				errs = append(errs, &OversizedBinaryError{})
				return
			}

			if operands[0].Type == TOKEN_LITERAL {
				literal, err := parseLiteral(&operands[0], LITERAL_WORD)

				if err != nil {
					errs = append(errs, err)
				}

				image[program] = byte(literal >> 8)
				image[program+1] = byte(literal)
			} else if operands[0].Type == TOKEN_IDENT {
				addr, exists := labels[operands[0].Value]

				if exists {
					image[program] = byte(addr >> 8)
					image[program+1] = byte(addr)
				} else {
					wordRefs = append(
						wordRefs,
						WordRef{
							operands[0].Value,
							uint16(program),
							operands[0].Position,
						},
					)
				}
			} else {
				errs = append(
					errs,
					&InvalidOperandError{
						operands[0].Position,
						[]TokenType{TOKEN_LITERAL, TOKEN_IDENT},
						operands[0].Type,
					},
				)
			}

			program += 2

			if program > end {
				end = program
			}
		}

		switch instruction {
		// CLS  |0|0E0         | Clear the screen
		// RET  |0|0EE         | Return from subroutine
		// ---- [ _ ][ _  _  _ ]
		case INSTRUCTION_CLS, INSTRUCTION_RET:
			if count := len(operands); count != 0 {
				errs = append(
					errs, &InvalidNumArgumentsError{keyword.Position, 0, count},
				)

				break
			}

			if instruction == INSTRUCTION_CLS {
				scratch = 0x00E0
			} else {
				scratch = 0x00EE
			}

		// JP   |1|NNN         | Jump to address
		// JP   |B|NNN         | Jump to address plus V0
		// CALL |2|NNN         | Call subroutine at address
		// ---- [ _ ][ _  _  _ ]
		case INSTRUCTION_JP, INSTRUCTION_CALL:
			count := len(operands)

			if instruction == INSTRUCTION_CALL || count < 2 {
				if count != 1 {
					errs = append(
						errs,
						&InvalidNumArgumentsError{keyword.Position, 1, count},
					)

					break
				}
			} else if count != 2 {
				errs = append(
					errs, &InvalidNumArgumentsError{keyword.Position, 2, count},
				)

				break
			}

			target := &operands[0]

			if instruction == INSTRUCTION_JP {
				scratch = machine.OP_JP

				if count == 2 {
					reg, ok := parseRegister(&operands[0])

					if !ok || reg != 0 {
						errs = append(
							errs, &InvalidRegisterError{operands[0].Position},
						)
					}

					scratch = machine.OP_JPV0
					target = &operands[1]
				}
			} else {
				scratch = machine.OP_CALL
			}

			if target.Type == TOKEN_LITERAL {
				literal, err := parseLiteral(target, LITERAL_ADDR)

				if err != nil {
					errs = append(errs, err)
				}

				scratch |= (literal & 0x0FFF)
			} else if target.Type == TOKEN_IDENT {
				labelRefs = append(
					labelRefs,
					LabelRef{
						target.Value,
						uint16(program),
						LITERAL_ADDR,
						target.Position,
					},
				)
			} else {
				errs = append(
					errs,
					&InvalidOperandError{
						target.Position,
						[]TokenType{TOKEN_LITERAL, TOKEN_IDENT},
						target.Type,
					},
				)
			}

		// SE   |3|X|KK        | Skip next if VX equals byte
		// SE   |5|X|Y|0       | Skip next if VX equals VY
		// SNE  |4|X|KK        | Skip next if VX differs from byte
		// SNE  |9|X|Y|0       | Skip next if VX differs from VY
		// ---- [ _ ][ _ ][ _  _ ]
		case INSTRUCTION_SE, INSTRUCTION_SNE:
			if count := len(operands); count != 2 {
				errs = append(
					errs, &InvalidNumArgumentsError{keyword.Position, 2, count},
				)

				break
			}

			vx, ok := parseRegister(&operands[0])

			if operands[0].Type != TOKEN_IDENT || !ok {
				errs = append(
					errs, &InvalidRegisterError{operands[0].Position},
				)

				break
			}

			if operands[1].Type == TOKEN_LITERAL {
				literal, err := parseLiteral(&operands[1], LITERAL_BYTE)

				if err != nil {
					errs = append(errs, err)
				}

				if instruction == INSTRUCTION_SE {
					scratch = machine.OP_SEKK
				} else {
					scratch = machine.OP_SNEKK
				}

				scratch |= (vx << 8) | (literal & 0xFF)
			} else if vy, ok := parseRegister(&operands[1]); ok {
				if instruction == INSTRUCTION_SE {
					scratch = machine.OP_SE
				} else {
					scratch = machine.OP_SNE
				}

				scratch |= (vx << 8) | (vy << 4)
			} else {
				errs = append(
					errs,
					&InvalidOperandError{
						operands[1].Position,
						[]TokenType{TOKEN_LITERAL, TOKEN_IDENT},
						operands[1].Type,
					},
				)
			}

		// LD   |6|X|KK        | VX = byte
		// LD   |8|X|Y|0       | VX = VY
		// LD   |A|NNN         | I = address
		// LD   |F|X|07        | VX = delay timer
		// LD   |F|X|0A        | VX = next keypress
		// LD   |F|X|15        | Delay timer = VX
		// LD   |F|X|18        | Sound timer = VX
		// LD   |F|X|29        | I = glyph address for VX
		// LD   |F|X|33        | Memory[I..I+2] = BCD of VX
		// LD   |F|X|55        | Memory[I..I+X] = V0..VX
		// LD   |F|X|65        | V0..VX = Memory[I..I+X]
		// ---- [ _ ][ _ ][ _  _ ]
		case INSTRUCTION_LD:
			if count := len(operands); count != 2 {
				errs = append(
					errs, &InvalidNumArgumentsError{keyword.Position, 2, count},
				)

				break
			}

			dst := &operands[0]
			src := &operands[1]

			if matchKeyword(dst, "I") {
				if src.Type == TOKEN_LITERAL {
					literal, err := parseLiteral(src, LITERAL_ADDR)

					if err != nil {
						errs = append(errs, err)
					}

					scratch = machine.OP_LDI | (literal & 0x0FFF)
				} else if src.Type == TOKEN_IDENT {
					scratch = machine.OP_LDI

					labelRefs = append(
						labelRefs,
						LabelRef{
							src.Value,
							uint16(program),
							LITERAL_ADDR,
							src.Position,
						},
					)
				} else {
					errs = append(
						errs,
						&InvalidOperandError{
							src.Position,
							[]TokenType{TOKEN_LITERAL, TOKEN_IDENT},
							src.Type,
						},
					)
				}

				break
			}

			if matchKeyword(dst, "DT") || matchKeyword(dst, "ST") ||
				matchKeyword(dst, "F") || matchKeyword(dst, "B") ||
				matchKeyword(dst, "[I]") {
				vx, ok := parseRegister(src)

				if src.Type != TOKEN_IDENT || !ok {
					errs = append(errs, &InvalidRegisterError{src.Position})
					break
				}

				scratch = machine.OP_MISC | (vx << 8)

				switch {
				case matchKeyword(dst, "DT"):
					scratch |= 0x15
				case matchKeyword(dst, "ST"):
					scratch |= 0x18
				case matchKeyword(dst, "F"):
					scratch |= 0x29
				case matchKeyword(dst, "B"):
					scratch |= 0x33
				default:
					scratch |= 0x55
				}

				break
			}

			vx, ok := parseRegister(dst)

			if dst.Type != TOKEN_IDENT || !ok {
				errs = append(errs, &InvalidRegisterError{dst.Position})
				break
			}

			if src.Type == TOKEN_LITERAL {
				literal, err := parseLiteral(src, LITERAL_BYTE)

				if err != nil {
					errs = append(errs, err)
				}

				scratch = machine.OP_LDKK | (vx << 8) | (literal & 0xFF)
			} else if matchKeyword(src, "DT") {
				scratch = machine.OP_MISC | (vx << 8) | 0x07
			} else if matchKeyword(src, "K") {
				scratch = machine.OP_MISC | (vx << 8) | 0x0A
			} else if matchKeyword(src, "[I]") {
				scratch = machine.OP_MISC | (vx << 8) | 0x65
			} else if vy, ok := parseRegister(src); ok {
				scratch = machine.OP_ALU | (vx << 8) | (vy << 4)
			} else {
				errs = append(
					errs,
					&InvalidOperandError{
						src.Position,
						[]TokenType{TOKEN_LITERAL, TOKEN_IDENT},
						src.Type,
					},
				)
			}

		// ADD  |7|X|KK        | VX += byte
		// ADD  |8|X|Y|4       | VX += VY with carry into VF
		// ADD  |F|X|1E        | I += VX
		// ---- [ _ ][ _ ][ _  _ ]
		case INSTRUCTION_ADD:
			if count := len(operands); count != 2 {
				errs = append(
					errs, &InvalidNumArgumentsError{keyword.Position, 2, count},
				)

				break
			}

			if matchKeyword(&operands[0], "I") {
				vx, ok := parseRegister(&operands[1])

				if operands[1].Type != TOKEN_IDENT || !ok {
					errs = append(
						errs, &InvalidRegisterError{operands[1].Position},
					)

					break
				}

				scratch = machine.OP_MISC | (vx << 8) | 0x1E
				break
			}

			vx, ok := parseRegister(&operands[0])

			if operands[0].Type != TOKEN_IDENT || !ok {
				errs = append(
					errs, &InvalidRegisterError{operands[0].Position},
				)

				break
			}

			if operands[1].Type == TOKEN_LITERAL {
				literal, err := parseLiteral(&operands[1], LITERAL_BYTE)

				if err != nil {
					errs = append(errs, err)
				}

				scratch = machine.OP_ADDKK | (vx << 8) | (literal & 0xFF)
			} else if vy, ok := parseRegister(&operands[1]); ok {
				scratch = machine.OP_ALU | (vx << 8) | (vy << 4) | 0x4
			} else {
				errs = append(
					errs,
					&InvalidOperandError{
						operands[1].Position,
						[]TokenType{TOKEN_LITERAL, TOKEN_IDENT},
						operands[1].Type,
					},
				)
			}

		// OR   |8|X|Y|1       | VX |= VY
		// AND  |8|X|Y|2       | VX &= VY
		// XOR  |8|X|Y|3       | VX ^= VY
		// SUB  |8|X|Y|5       | VX -= VY with borrow into VF
		// SUBN |8|X|Y|7       | VX = VY - VX with borrow into VF
		// ---- [ _ ][ _ ][ _ ][ _ ]
		case INSTRUCTION_OR,
			INSTRUCTION_AND,
			INSTRUCTION_XOR,
			INSTRUCTION_SUB,
			INSTRUCTION_SUBN:
			if count := len(operands); count != 2 {
				errs = append(
					errs, &InvalidNumArgumentsError{keyword.Position, 2, count},
				)

				break
			}

			scratch = machine.OP_ALU

			switch instruction {
			case INSTRUCTION_OR:
				scratch |= 0x1
			case INSTRUCTION_AND:
				scratch |= 0x2
			case INSTRUCTION_XOR:
				scratch |= 0x3
			case INSTRUCTION_SUB:
				scratch |= 0x5
			case INSTRUCTION_SUBN:
				scratch |= 0x7
			}

			for i := 0; i < 2; i++ {
				if operands[i].Type != TOKEN_IDENT {
					errs = append(
						errs,
						&InvalidOperandError{
							operands[i].Position,
							[]TokenType{TOKEN_IDENT},
							operands[i].Type,
						},
					)

					continue
				}

				reg, ok := parseRegister(&operands[i])

				if !ok {
					errs = append(
						errs, &InvalidRegisterError{operands[i].Position},
					)
				}

				scratch |= reg << (8 - uint(i)*4)
			}

		// SHR  |8|X|0|6       | VX >>= 1 with the low bit into VF
		// SHL  |8|X|0|E       | VX <<= 1 with the high bit into VF
		// ---- [ _ ][ _ ][ _ ][ _ ]
		case INSTRUCTION_SHR, INSTRUCTION_SHL:
			if count := len(operands); count != 1 {
				errs = append(
					errs, &InvalidNumArgumentsError{keyword.Position, 1, count},
				)

				break
			}

			vx, ok := parseRegister(&operands[0])

			if operands[0].Type != TOKEN_IDENT || !ok {
				errs = append(
					errs, &InvalidRegisterError{operands[0].Position},
				)

				break
			}

			scratch = machine.OP_ALU | (vx << 8)

			if instruction == INSTRUCTION_SHR {
				scratch |= 0x6
			} else {
				scratch |= 0xE
			}

		// RND  |C|X|KK        | VX = random byte masked by KK
		// ---- [ _ ][ _ ][ _  _ ]
		case INSTRUCTION_RND:
			if count := len(operands); count != 2 {
				errs = append(
					errs, &InvalidNumArgumentsError{keyword.Position, 2, count},
				)

				break
			}

			vx, ok := parseRegister(&operands[0])

			if operands[0].Type != TOKEN_IDENT || !ok {
				errs = append(
					errs, &InvalidRegisterError{operands[0].Position},
				)

				break
			}

			if operands[1].Type != TOKEN_LITERAL {
				errs = append(
					errs,
					&InvalidOperandError{
						operands[1].Position,
						[]TokenType{TOKEN_LITERAL},
						operands[1].Type,
					},
				)

				break
			}

			literal, err := parseLiteral(&operands[1], LITERAL_BYTE)

			if err != nil {
				errs = append(errs, err)
			}

			scratch = machine.OP_RND | (vx << 8) | (literal & 0xFF)

		// DRW  |D|X|Y|N       | Draw an 8xN sprite from I at (VX, VY)
		// ---- [ _ ][ _ ][ _ ][ _ ]
		case INSTRUCTION_DRW:
			if count := len(operands); count != 3 {
				errs = append(
					errs, &InvalidNumArgumentsError{keyword.Position, 3, count},
				)

				break
			}

			scratch = machine.OP_DRW

			for i := 0; i < 2; i++ {
				if operands[i].Type != TOKEN_IDENT {
					errs = append(
						errs,
						&InvalidOperandError{
							operands[i].Position,
							[]TokenType{TOKEN_IDENT},
							operands[i].Type,
						},
					)

					continue
				}

				reg, ok := parseRegister(&operands[i])

				if !ok {
					errs = append(
						errs, &InvalidRegisterError{operands[i].Position},
					)
				}

				scratch |= reg << (8 - uint(i)*4)
			}

			if operands[2].Type != TOKEN_LITERAL {
				errs = append(
					errs,
					&InvalidOperandError{
						operands[2].Position,
						[]TokenType{TOKEN_LITERAL},
						operands[2].Type,
					},
				)

				break
			}

			literal, err := parseLiteral(&operands[2], LITERAL_NIBBLE)

			if err != nil {
				errs = append(errs, err)
			}

			scratch |= (literal & 0xF)

		// SKP  |E|X|9E        | Skip next if the key in VX is pressed
		// SKNP |E|X|A1        | Skip next if the key in VX is not pressed
		// ---- [ _ ][ _ ][ _  _ ]
		case INSTRUCTION_SKP, INSTRUCTION_SKNP:
			if count := len(operands); count != 1 {
				errs = append(
					errs, &InvalidNumArgumentsError{keyword.Position, 1, count},
				)

				break
			}

			vx, ok := parseRegister(&operands[0])

			if operands[0].Type != TOKEN_IDENT || !ok {
				errs = append(
					errs, &InvalidRegisterError{operands[0].Position},
				)

				break
			}

			scratch = machine.OP_KEY | (vx << 8)

			if instruction == INSTRUCTION_SKP {
				scratch |= 0x9E
			} else {
				scratch |= 0xA1
			}
		}

		if symtable != nil {
			symtable.Symbols[uint16(program)] = cursor.LineByte
		}

		if instruction != INSTRUCTION_INVALID {
			if int(program)+1 >= len(image) {
				errs = append(errs, &OversizedBinaryError{})
				return
			}

			image[program] = byte(scratch >> 8)
			image[program+1] = byte(scratch)
			program += 2

			if program > end {
				end = program
			}
		}

		cursor.Line++
		cursor.Byte += int64(len(line) + 1)
		cursor.LineByte += int64(len(line) + 1)
	}

	// Label
	// - Validate and resolve label references
	// - Add labels to symbol table
	for _, ref := range labelRefs {
		addr, exists := labels[ref.Label]

		if !exists {
			errs = append(errs, &UnknownLabelError{ref.Position, ref.Label})
			continue
		}

		limit := uint32(1) << ref.Size

		if uint32(addr) >= limit {
			errs = append(
				errs,
				&OversizedLabelError{
					ref.Position, int64(limit) - 1, int64(addr),
				},
			)

			continue
		}

		image[ref.Addr] |= byte((addr >> 8) & 0x0F)
		image[ref.Addr+1] = byte(addr)
	}

	if symtable != nil {
		for label, addr := range labels {
			symtable.Labels[addr] = label
		}
	}

	// Word
	// - Validate and resolve word directives whose arguments were unresolved
	//	 label references
	for _, ref := range wordRefs {
		addr, exists := labels[ref.Label]

		if !exists {
			errs = append(errs, &UnknownLabelError{ref.Position, ref.Label})
			continue
		}

		image[ref.Addr] = byte(addr >> 8)
		image[ref.Addr+1] = byte(addr)
	}

	result = image[machine.ProgramStart:end]

	return
}
