package diag

import (
	"fmt"
)

type Code uint16

const (
	// Неизвестная ошибка
	UnknownCode Code = 0

	// Загрузка дампов и исходников
	IOInfo          Code = 1000
	IOLoadFileError Code = 1001
	IODecodeDump    Code = 1002
	IOMissingSource Code = 1003

	// Линты
	LintInfo           Code = 4000
	LintAsyncFnInTrait Code = 4001

	// Конфигурация
	CfgInfo         Code = 5000
	CfgUnknownLint  Code = 5001
	CfgInvalidLevel Code = 5002

	ObsInfo    Code = 6000
	ObsTimings Code = 6001
)

var (
	codeDescription = map[Code]string{
		UnknownCode:        "Unknown error",
		IOInfo:             "I/O information",
		IOLoadFileError:    "I/O load file error",
		IODecodeDump:       "malformed HIR dump",
		IOMissingSource:    "source file referenced by dump is missing",
		LintInfo:           "Lint information",
		LintAsyncFnInTrait: "use of `async fn` in definition of a publicly-reachable trait",
		CfgInfo:            "Configuration information",
		CfgUnknownLint:     "unknown lint name",
		CfgInvalidLevel:    "invalid lint level",
		ObsInfo:            "Observability information",
		ObsTimings:         "Pipeline timings",
	}
)

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("IO%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("LNT%04d", ic)
	case ic >= 5000 && ic < 6000:
		return fmt.Sprintf("CFG%04d", ic)
	case ic >= 6000 && ic < 7000:
		return fmt.Sprintf("OBS%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[UnknownCode]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
