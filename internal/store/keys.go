package store

import "encoding/binary"

// Pebble key layout:
//
//	seq/channel                       -> last channel id (8 bytes BE)
//	seq/message                       -> last message id (8 bytes BE)
//	chan/{channelID:8}                -> Channel JSON
//	msg/{channelID:8}/{messageID:8}   -> Message JSON
//
// Big-endian ids keep byte order equal to numeric order, so a prefix scan
// over chan/ lists channels by id and a reverse scan over msg/{id}/ lists
// messages newest first.
var (
	seqChannelKey = []byte("seq/channel")
	seqMessageKey = []byte("seq/message")
	chanPrefix    = []byte("chan/")
	msgPrefix     = []byte("msg/")
)

func channelKey(id int64) []byte {
	k := make([]byte, 0, len(chanPrefix)+8)
	k = append(k, chanPrefix...)
	return binary.BigEndian.AppendUint64(k, uint64(id))
}

func messagesPrefix(channelID int64) []byte {
	k := make([]byte, 0, len(msgPrefix)+9)
	k = append(k, msgPrefix...)
	k = binary.BigEndian.AppendUint64(k, uint64(channelID))
	return append(k, '/')
}

func messageKey(channelID, messageID int64) []byte {
	return binary.BigEndian.AppendUint64(messagesPrefix(channelID), uint64(messageID))
}

func encodeSeq(v int64) []byte {
	return binary.BigEndian.AppendUint64(nil, uint64(v))
}

func decodeSeq(b []byte) int64 {
	if len(b) != 8 {
		return 0
	}
	return int64(binary.BigEndian.Uint64(b))
}
