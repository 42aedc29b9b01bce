package decoder

import (
	"bytes"
	"encoding/base64"
	"strings"
)

const programDataPrefix = "Program data: "

// EventCPIDiscriminator anchor事件CPI指令的8字节前缀
var EventCPIDiscriminator = []byte{0xe4, 0x45, 0xa5, 0x2e, 0x51, 0xcb, 0x9a, 0x1d}

// EventPayloads 从交易日志里抽出所有anchor事件的原始字节。
// 日志不带程序归属，由调用方用事件discriminator自行过滤
func EventPayloads(logs []string) [][]byte {
	var payloads [][]byte
	for _, line := range logs {
		rest, ok := strings.CutPrefix(line, programDataPrefix)
		if !ok {
			continue
		}
		payload, err := base64.StdEncoding.DecodeString(rest)
		if err != nil {
			continue
		}
		payloads = append(payloads, payload)
	}
	return payloads
}

// MatchEvent 校验payload的事件discriminator，匹配则返回事件体
func MatchEvent(payload, discriminator []byte) ([]byte, bool) {
	if len(payload) < len(discriminator) {
		return nil, false
	}
	if !bytes.Equal(payload[:len(discriminator)], discriminator) {
		return nil, false
	}
	return payload[len(discriminator):], true
}

// MatchEventCPI 校验指令数据是否为anchor事件CPI，匹配指定事件时返回事件体
func MatchEventCPI(data, eventDiscriminator []byte) ([]byte, bool) {
	payload, ok := MatchEvent(data, EventCPIDiscriminator)
	if !ok {
		return nil, false
	}
	return MatchEvent(payload, eventDiscriminator)
}
