package store

import (
	"encoding/base64"
	"time"

	"casino-lite/blackjack"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// encodeEvents turns transition events into tape rows numbered from firstSeq.
// Each envelope is a google.protobuf.Struct, marshaled and base64-encoded.
func encodeEvents(sessionID string, firstSeq uint64, events []blackjack.Event, now time.Time) ([]EventItem, error) {
	out := make([]EventItem, 0, len(events))
	tsMs := now.UTC().UnixMilli()
	for i, e := range events {
		seq := firstSeq + uint64(i)
		fields := map[string]any{
			"sessionId":  sessionID,
			"seq":        seq,
			"type":       string(e.Type),
			"serverTsMs": tsMs,
		}
		if e.Side != "" {
			fields["side"] = e.Side
		}
		if e.Card != nil {
			fields["card"] = map[string]any{
				"suit": e.Card.Card.Suit().String(),
				"rank": e.Card.Card.Rank().String(),
				"seq":  e.Card.Seq,
			}
		}
		if e.Bet != 0 {
			fields["bet"] = e.Bet
		}
		if e.Type == blackjack.EventSettle {
			fields["result"] = string(e.Result)
			fields["payout"] = e.Payout
		}
		st, err := structpb.NewStruct(fields)
		if err != nil {
			return nil, err
		}
		raw, err := proto.Marshal(st)
		if err != nil {
			return nil, err
		}
		out = append(out, EventItem{
			Seq:         seq,
			EventType:   string(e.Type),
			EnvelopeB64: base64.StdEncoding.EncodeToString(raw),
			ServerTsMs:  tsMs,
		})
	}
	return out, nil
}

// DecodeEnvelope reverses the envelope encoding of a tape row.
func DecodeEnvelope(envelopeB64 string) (map[string]any, error) {
	raw, err := base64.StdEncoding.DecodeString(envelopeB64)
	if err != nil {
		return nil, err
	}
	var st structpb.Struct
	if err := proto.Unmarshal(raw, &st); err != nil {
		return nil, err
	}
	return st.AsMap(), nil
}
