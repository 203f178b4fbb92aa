/*
NAME
  vbidecoder.go

DESCRIPTION
  vbidecoder.go decodes IEC 60857 VBI biphase data (lines 16/17/18)
  into display-ready field information: CAV picture numbers, CLV
  timecodes, chapter markers, control codes, and programme status.
  It reads the raw decoded VBI line values from an observation.Context
  under the "biphase" namespace, as populated upstream by a biphase
  decoding stage.

AUTHOR
  Trek Hopton <trek@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package vbidecoder decodes raw VBI biphase lines into structured
// field information (timecodes, chapter markers, programme status).
package vbidecoder

import (
	"fmt"

	"github.com/tbcorc/orc/ids"
	"github.com/tbcorc/orc/observation"
)

// SoundMode mirrors IEC 60857-1986's programme status sound mode
// encoding.
type SoundMode int

const (
	SoundStereo SoundMode = iota
	SoundMono
	SoundAudioSubcarriersOff
	SoundBilingual
	SoundStereoStereo
	SoundStereoBilingual
	SoundCrossChannelStereo
	SoundBilingualBilingual
	SoundMonoDump
	SoundStereoDump
	SoundBilingualDump
	SoundFutureUse
)

// CLVTimecode is a decoded CLV programme timecode.
type CLVTimecode struct {
	Hours         int
	Minutes       int
	Seconds       int
	PictureNumber int
}

// ProgrammeStatus is the LaserDisc programme status word decoded
// from VBI line 16.
type ProgrammeStatus struct {
	CXEnabled       bool
	Is12Inch        bool
	IsSide1         bool
	HasTeletext     bool
	IsDigital       bool
	SoundMode       SoundMode
	IsFMMultiplex   bool
	IsProgrammeDump bool
	ParityValid     bool
}

// Amendment2Status is the Amendment 2 programme status word, an
// alternate interpretation of the same VBI bits.
type Amendment2Status struct {
	CopyPermitted  bool
	IsVideoStandard bool
	SoundMode      SoundMode
}

// FieldInfo is the complete decoded VBI information for one field.
type FieldInfo struct {
	FieldID ids.FieldID

	VBILine16 int32
	VBILine17 int32
	VBILine18 int32

	PictureNumber    int
	HasPictureNumber bool
	CLVTimecode      CLVTimecode
	HasCLVTimecode   bool
	ChapterNumber    int
	HasChapterNumber bool

	StopCodePresent bool
	LeadIn          bool
	LeadOut         bool
	UserCode        string
	HasUserCode     bool

	ProgrammeStatus    ProgrammeStatus
	HasProgrammeStatus bool
	Amendment2Status   Amendment2Status
	HasAmendment2      bool

	HasVBIData   bool
	ErrorMessage string
}

// Decode extracts biphase-decoded VBI line observations for fieldID
// from ctx and parses them into a FieldInfo. FieldInfo.HasVBIData
// reports whether any VBI data was found at all; a field with no
// biphase observations yields a FieldInfo with HasVBIData=false rather
// than an error, matching upstream fields that simply predate/postdate
// VBI-bearing lines.
func Decode(ctx *observation.Context, fieldID ids.FieldID) FieldInfo {
	v16, ok16 := ctx.Get(fieldID, observation.NSBiphase, "vbi_line_16")
	v17, ok17 := ctx.Get(fieldID, observation.NSBiphase, "vbi_line_17")
	v18, ok18 := ctx.Get(fieldID, observation.NSBiphase, "vbi_line_18")
	if !ok16 || !ok17 || !ok18 {
		return FieldInfo{
			FieldID:      fieldID,
			HasVBIData:   false,
			ErrorMessage: "No VBI data available",
		}
	}

	line16, _ := v16.AsInt32()
	line17, _ := v17.AsInt32()
	line18, _ := v18.AsInt32()

	return parse(fieldID, line16, line17, line18)
}

// ToFrameNumber converts a CLV timecode into a frame number at the
// given field rate, per the resolved decision that field parity does
// not participate: the frame number identifies a frame, and parity
// only determines how that frame splits into two fields.
func ToFrameNumber(tc CLVTimecode, fieldsPerSecond int) int64 {
	fps := int64(fieldsPerSecond)
	return int64(tc.Hours)*3600*fps + int64(tc.Minutes)*60*fps + int64(tc.Seconds)*fps + int64(tc.PictureNumber)
}

func decodeBCD(bcd uint32) (int, bool) {
	output := 0
	multiplier := 1
	for bcd > 0 {
		digit := bcd & 0x0F
		if digit > 9 {
			return 0, false
		}
		output += int(digit) * multiplier
		multiplier *= 10
		bcd >>= 4
	}
	return output, true
}

// checkParity validates the IEC 60857 x51/x52/x53 parity bits against
// the x41..x44 payload bits of the programme status word.
func checkParity(x4, x5 uint32) bool {
	x51 := x5&0x8 != 0
	x52 := x5&0x4 != 0
	x53 := x5&0x2 != 0

	x41 := x4&0x8 != 0
	x42 := x4&0x4 != 0
	x43 := x4&0x2 != 0
	x44 := x4&0x1 != 0

	count := func(bits ...bool) int {
		n := 0
		for _, b := range bits {
			if b {
				n++
			}
		}
		return n
	}

	parityOK := func(bit bool, bitCount int) bool {
		even := bitCount%2 == 0
		return (even && !bit) || (!even && bit)
	}

	x51p := parityOK(x51, count(x41, x42, x44))
	x52p := parityOK(x52, count(x41, x43, x44))
	x53p := parityOK(x53, count(x42, x43, x44))
	return x51p && x52p && x53p
}

func decodeCLVHoursMinutes(line17, line18 int32) (hours, minutes int, found bool) {
	hours, minutes = -1, -1
	if (line17 & 0xF0FF00) == 0xF0DD00 {
		if h, ok1 := decodeBCD(uint32(line17&0x0F0000) >> 16); ok1 {
			if m, ok2 := decodeBCD(uint32(line17 & 0x0000FF)); ok2 {
				hours, minutes, found = h, m, true
			}
		}
	}
	if (line18 & 0xF0FF00) == 0xF0DD00 {
		if h, ok1 := decodeBCD(uint32(line18&0x0F0000) >> 16); ok1 {
			if m, ok2 := decodeBCD(uint32(line18 & 0x0000FF)); ok2 {
				hours, minutes, found = h, m, true
			}
		}
	}
	return hours, minutes, found
}

func decodeCLVSecondsPicture(line16 int32) (seconds, picture int, ok bool) {
	if (line16 & 0xF0F000) != 0x80E000 {
		return -1, -1, false
	}
	tens := uint32(line16&0x0F0000) >> 16
	if tens < 0xA || tens > 0xF {
		return -1, -1, false
	}
	secDigit, ok1 := decodeBCD(uint32(line16&0x000F00) >> 8)
	picNo, ok2 := decodeBCD(uint32(line16 & 0x0000FF))
	if !ok1 || !ok2 {
		return -1, -1, false
	}
	sec := 10*(int(tens)-0xA) + secDigit
	if sec < 0 || sec > 59 || picNo < 0 || picNo > 29 {
		return -1, -1, false
	}
	return sec, picNo, true
}

func soundModeFromAudioStatus(status uint32) (SoundMode, bool, bool) {
	switch status {
	case 0:
		return SoundStereo, false, false
	case 1:
		return SoundMono, false, false
	case 2:
		return SoundFutureUse, false, false
	case 3:
		return SoundBilingual, false, false
	case 4:
		return SoundStereoStereo, false, true
	case 5:
		return SoundStereoBilingual, false, true
	case 6:
		return SoundCrossChannelStereo, false, true
	case 7:
		return SoundBilingualBilingual, false, true
	case 8, 9, 11:
		return SoundMonoDump, true, false
	case 10:
		return SoundFutureUse, true, false
	case 12, 13:
		return SoundStereoDump, true, true
	case 14, 15:
		return SoundBilingualDump, true, true
	default:
		return SoundStereo, false, false
	}
}

func parse(fieldID ids.FieldID, line16, line17, line18 int32) FieldInfo {
	info := FieldInfo{
		FieldID:    fieldID,
		VBILine16:  line16,
		VBILine17:  line17,
		VBILine18:  line18,
		HasVBIData: true,
	}

	var cavPicture int
	var hasCAVPicture bool
	if (line17 & 0xF00000) == 0xF00000 {
		if pic, ok := decodeBCD(uint32(line17 & 0x07FFFF)); ok {
			cavPicture, hasCAVPicture = pic, true
		}
	}
	if (line18 & 0xF00000) == 0xF00000 {
		if pic, ok := decodeBCD(uint32(line18 & 0x07FFFF)); ok {
			cavPicture, hasCAVPicture = pic, true
		}
	}

	if (line17 & 0xF00FFF) == 0x800DDD {
		if chapter, ok := decodeBCD(uint32(line17&0x07F000) >> 12); ok {
			info.ChapterNumber, info.HasChapterNumber = chapter, true
		}
	}
	if (line18 & 0xF00FFF) == 0x800DDD {
		if chapter, ok := decodeBCD(uint32(line18&0x07F000) >> 12); ok {
			info.ChapterNumber, info.HasChapterNumber = chapter, true
		}
	}

	hours, minutes, hasHM := decodeCLVHoursMinutes(line17, line18)
	seconds, picture, hasSP := decodeCLVSecondsPicture(line16)
	if hasHM && hasSP {
		info.CLVTimecode = CLVTimecode{Hours: hours, Minutes: minutes, Seconds: seconds, PictureNumber: picture}
		info.HasCLVTimecode = true
	}

	if !hasSP && hasCAVPicture {
		info.PictureNumber, info.HasPictureNumber = cavPicture, true
	}

	if line17 == 0x88FFFF || line18 == 0x88FFFF {
		info.LeadIn = true
	}
	if line17 == 0x80EEEE || line18 == 0x80EEEE {
		info.LeadOut = true
	}
	if line16 == 0x82CFFF || line17 == 0x82CFFF {
		info.StopCodePresent = true
	}

	if (line16&0xFFF000) == 0x8DC000 || (line16&0xFFF000) == 0x8BA000 {
		x3 := uint32(line16&0x000F00) >> 8
		x4 := uint32(line16&0x0000F0) >> 4
		x5 := uint32(line16 & 0x0000F)

		var audioStatus uint32
		if x4&0x08 == 0x08 {
			audioStatus += 8
		}
		if x3&0x01 == 0x01 {
			audioStatus += 4
		}
		if x4&0x02 == 0x02 {
			audioStatus += 2
		}
		if x4&0x01 == 0x01 {
			audioStatus += 1
		}
		soundMode, isDump, isFM := soundModeFromAudioStatus(audioStatus)

		info.ProgrammeStatus = ProgrammeStatus{
			CXEnabled:       (line16 & 0x0FF000) == 0x0DC000,
			Is12Inch:        x3&0x08 == 0,
			IsSide1:         x3&0x04 == 0,
			HasTeletext:     x3&0x02 != 0,
			IsDigital:       x4&0x04 != 0,
			SoundMode:       soundMode,
			IsFMMultiplex:   isFM,
			IsProgrammeDump: isDump,
			ParityValid:     checkParity(x4, x5),
		}
		info.HasProgrammeStatus = true

		am2Audio := x4 & 0x0F
		isVideoStandard := am2Audio == 0 || am2Audio == 1 || am2Audio == 3 || am2Audio == 8
		am2Sound := SoundStereo
		switch am2Audio {
		case 1:
			am2Sound = SoundMono
		case 3:
			am2Sound = SoundBilingual
		case 8:
			am2Sound = SoundMonoDump
		case 0:
			am2Sound = SoundStereo
		default:
			am2Sound = SoundFutureUse
		}
		info.Amendment2Status = Amendment2Status{
			CopyPermitted:   x3&0x01 != 0,
			IsVideoStandard: isVideoStandard,
			SoundMode:       am2Sound,
		}
		info.HasAmendment2 = true
	}

	if (line16 & 0xF0F000) == 0x80D000 {
		x1 := uint32(line16&0x0F0000) >> 16
		x3x4x5 := uint32(line16 & 0x000FFF)
		if x1 <= 7 {
			info.UserCode = fmt.Sprintf("%01X%03X", x1, x3x4x5)
			info.HasUserCode = true
		}
	}

	return info
}

// MergeFrameVBI combines the VBI information decoded from a frame's
// two fields, preferring the first field's data and falling back to
// the second wherever the first is absent.
func MergeFrameVBI(field1, field2 FieldInfo) FieldInfo {
	merged := FieldInfo{
		FieldID:    field1.FieldID,
		HasVBIData: field1.HasVBIData || field2.HasVBIData,
	}

	if field1.HasVBIData {
		merged.VBILine16, merged.VBILine17, merged.VBILine18 = field1.VBILine16, field1.VBILine17, field1.VBILine18
	} else {
		merged.VBILine16, merged.VBILine17, merged.VBILine18 = field2.VBILine16, field2.VBILine17, field2.VBILine18
	}

	if field1.HasPictureNumber {
		merged.PictureNumber, merged.HasPictureNumber = field1.PictureNumber, true
	} else if field2.HasPictureNumber {
		merged.PictureNumber, merged.HasPictureNumber = field2.PictureNumber, true
	}

	hours, minutes, hasHM := decodeCLVHoursMinutes(field1.VBILine17, field1.VBILine18)
	seconds, picture, hasSP := decodeCLVSecondsPicture(field1.VBILine16)
	if !hasHM {
		hours, minutes, hasHM = decodeCLVHoursMinutes(field2.VBILine17, field2.VBILine18)
	}
	if !hasSP {
		seconds, picture, hasSP = decodeCLVSecondsPicture(field2.VBILine16)
	}
	if hasHM && hasSP {
		merged.CLVTimecode = CLVTimecode{Hours: hours, Minutes: minutes, Seconds: seconds, PictureNumber: picture}
		merged.HasCLVTimecode = true
	}

	if field1.HasChapterNumber {
		merged.ChapterNumber, merged.HasChapterNumber = field1.ChapterNumber, true
	} else if field2.HasChapterNumber {
		merged.ChapterNumber, merged.HasChapterNumber = field2.ChapterNumber, true
	}

	if field1.HasUserCode {
		merged.UserCode, merged.HasUserCode = field1.UserCode, true
	} else if field2.HasUserCode {
		merged.UserCode, merged.HasUserCode = field2.UserCode, true
	}

	merged.LeadIn = field1.LeadIn || field2.LeadIn
	merged.LeadOut = field1.LeadOut || field2.LeadOut
	merged.StopCodePresent = field1.StopCodePresent || field2.StopCodePresent

	if field1.HasProgrammeStatus || field2.HasProgrammeStatus {
		var ps ProgrammeStatus
		if field1.HasProgrammeStatus {
			orProgrammeStatus(&ps, field1.ProgrammeStatus)
		}
		if field2.HasProgrammeStatus {
			orProgrammeStatus(&ps, field2.ProgrammeStatus)
		}
		merged.ProgrammeStatus, merged.HasProgrammeStatus = ps, true
	}

	if field1.HasAmendment2 || field2.HasAmendment2 {
		var am Amendment2Status
		if field1.HasAmendment2 {
			orAmendment2(&am, field1.Amendment2Status)
		}
		if field2.HasAmendment2 {
			orAmendment2(&am, field2.Amendment2Status)
		}
		merged.Amendment2Status, merged.HasAmendment2 = am, true
	}

	return merged
}

func orProgrammeStatus(dst *ProgrammeStatus, src ProgrammeStatus) {
	dst.CXEnabled = dst.CXEnabled || src.CXEnabled
	dst.Is12Inch = dst.Is12Inch || src.Is12Inch
	dst.IsSide1 = dst.IsSide1 || src.IsSide1
	dst.HasTeletext = dst.HasTeletext || src.HasTeletext
	dst.IsDigital = dst.IsDigital || src.IsDigital
	dst.IsFMMultiplex = dst.IsFMMultiplex || src.IsFMMultiplex
	dst.IsProgrammeDump = dst.IsProgrammeDump || src.IsProgrammeDump
	dst.ParityValid = dst.ParityValid || src.ParityValid
	if src.SoundMode != SoundFutureUse {
		dst.SoundMode = src.SoundMode
	}
}

func orAmendment2(dst *Amendment2Status, src Amendment2Status) {
	dst.CopyPermitted = dst.CopyPermitted || src.CopyPermitted
	dst.IsVideoStandard = dst.IsVideoStandard || src.IsVideoStandard
	if src.SoundMode != SoundFutureUse {
		dst.SoundMode = src.SoundMode
	}
}
