package ir

// Instruction property queries. These are the only questions the CFG builder
// and the structurizer ask about an instruction.

// IsBlockTerminator reports whether the instruction ends a basic block
func (i *Instruction) IsBlockTerminator() bool {
	switch i.Op {
	case OpBranch, OpBranchConditional, OpSwitch,
		OpKill, OpTerminateInvocation, OpReturn, OpReturnValue, OpUnreachable:
		return true
	}
	return false
}

// IsReturnOrKill reports whether the instruction leaves the function (or the
// invocation) instead of transferring control to another block.
func (i *Instruction) IsReturnOrKill() bool {
	switch i.Op {
	case OpKill, OpTerminateInvocation, OpReturn, OpReturnValue:
		return true
	}
	return false
}

// IsDebugLine reports whether the instruction is a non-semantic line marker
func (i *Instruction) IsDebugLine() bool {
	return i.Op == OpLine || i.Op == OpNoLine
}

// IsMerge reports whether the instruction is a structured merge declaration
func (i *Instruction) IsMerge() bool {
	return i.Op == OpLoopMerge || i.Op == OpSelectionMerge
}

// idAt returns the id operand at index n
func (i *Instruction) idAt(n int) (ID, bool) {
	if n >= len(i.Operands) || i.Operands[n].Kind != OperandID {
		return 0, false
	}
	return i.Operands[n].ID, true
}

// LoopMerge returns the merge block and continue target of an OpLoopMerge
func (i *Instruction) LoopMerge() (merge, continueTarget ID, ok bool) {
	if i.Op != OpLoopMerge {
		return 0, 0, false
	}
	merge, okMerge := i.idAt(0)
	continueTarget, okContinue := i.idAt(1)
	return merge, continueTarget, okMerge && okContinue
}

// SelectionMerge returns the merge block of an OpSelectionMerge
func (i *Instruction) SelectionMerge() (ID, bool) {
	if i.Op != OpSelectionMerge {
		return 0, false
	}
	return i.idAt(0)
}

// ConditionalTargets returns the true and false labels of an OpBranchConditional
func (i *Instruction) ConditionalTargets() (trueLabel, falseLabel ID, ok bool) {
	if i.Op != OpBranchConditional {
		return 0, 0, false
	}
	trueLabel, okTrue := i.idAt(1)
	falseLabel, okFalse := i.idAt(2)
	return trueLabel, falseLabel, okTrue && okFalse
}

// SwitchCases returns the default label and the literal/label pairs of an
// OpSwitch, in operand order.
func (i *Instruction) SwitchCases() (defaultLabel ID, cases []SwitchCase, ok bool) {
	if i.Op != OpSwitch {
		return 0, nil, false
	}
	defaultLabel, ok = i.idAt(1)
	if !ok {
		return 0, nil, false
	}
	rest := i.Operands[2:]
	if len(rest)%2 != 0 {
		return 0, nil, false
	}
	for n := 0; n < len(rest); n += 2 {
		literal, target := rest[n], rest[n+1]
		if literal.Kind != OperandLiteral || target.Kind != OperandID {
			return 0, nil, false
		}
		cases = append(cases, SwitchCase{Literal: literal.Literal, Target: target.ID})
	}
	return defaultLabel, cases, true
}

// BranchTargets returns every label the terminator can transfer control to,
// in operand order and possibly with repeats. ok is false when the
// instruction is a branch whose targets cannot be decoded.
func (i *Instruction) BranchTargets() (targets []ID, ok bool) {
	switch i.Op {
	case OpBranch:
		target, ok := i.idAt(0)
		if !ok {
			return nil, false
		}
		return []ID{target}, true
	case OpBranchConditional:
		t, f, ok := i.ConditionalTargets()
		if !ok {
			return nil, false
		}
		return []ID{t, f}, true
	case OpSwitch:
		def, cases, ok := i.SwitchCases()
		if !ok {
			return nil, false
		}
		targets = []ID{def}
		for _, c := range cases {
			targets = append(targets, c.Target)
		}
		return targets, true
	}
	return nil, true
}
