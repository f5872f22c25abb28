package http

import (
	"encoding/json"

	"github.com/iffduels/overlay-server/internal/core"
	"github.com/iffduels/overlay-server/internal/proto"
	"github.com/iffduels/overlay-server/internal/store"
)

func inboundToCommand(inbound proto.Inbound) (*core.Command, *proto.Error, error) {
	switch inbound.Type {
	case proto.InboundTypeSubscribe:
		var sub proto.SubscribeData
		if err := json.Unmarshal(inbound.Data, &sub); err != nil {
			return nil, nil, err
		}
		if sub.Channel == "" {
			return nil, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "channel is required"}, nil
		}
		return &core.Command{
			Kind:    core.CommandSubscribe,
			Channel: sub.Channel,
		}, nil, nil
	case proto.InboundTypeUnsubscribe:
		var unsub proto.SubscribeData
		if err := json.Unmarshal(inbound.Data, &unsub); err != nil {
			return nil, nil, err
		}
		if unsub.Channel == "" {
			return nil, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "channel is required"}, nil
		}
		return &core.Command{
			Kind:    core.CommandUnsubscribe,
			Channel: unsub.Channel,
		}, nil, nil
	case proto.InboundTypePublish:
		var pub proto.PublishData
		if err := json.Unmarshal(inbound.Data, &pub); err != nil {
			return nil, nil, err
		}
		if pub.Channel == "" {
			return nil, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "channel is required"}, nil
		}
		return &core.Command{
			Kind:    core.CommandPublish,
			Channel: pub.Channel,
			Payload: pub.Payload,
		}, nil, nil
	default:
		return nil, &proto.Error{Code: "invalid_message", Msg: "unknown message type"}, nil
	}
}

func outboundFromEvent(event *core.Event) proto.Outbound {
	switch event.Kind {
	case core.EventChannelMessage:
		return proto.Outbound{
			Type:    proto.OutboundTypeEvent,
			Channel: event.Channel,
			Data:    event.Payload,
		}
	case core.EventError:
		if event.Error == nil {
			return proto.Outbound{Type: proto.OutboundTypeError, Error: &proto.Error{Code: "unknown", Msg: "unknown error"}}
		}
		return proto.Outbound{
			Type:  proto.OutboundTypeError,
			Error: &proto.Error{Code: event.Error.Code, Msg: event.Error.Message},
		}
	default:
		return proto.Outbound{Type: proto.OutboundTypeEvent}
	}
}

func playerDetail(p *store.Player) *proto.PlayerDetail {
	if p == nil {
		return nil
	}
	return &proto.PlayerDetail{
		ID:      p.ID,
		Tag:     p.Tag,
		Name:    p.Name,
		Country: p.Country,
		Record:  p.Record,
		Quote:   p.Quote,
		Stats: proto.ChartStats{
			Attack:       p.Stats.Attack,
			Defense:      p.Stats.Defense,
			Movement:     p.Stats.Movement,
			Adaptability: p.Stats.Adaptability,
			Stamina:      p.Stats.Stamina,
		},
	}
}

func teamDetail(t *store.Team) *proto.TeamDetail {
	if t == nil {
		return nil
	}
	players := make([]proto.SnapshotPlayer, 0, len(t.Players))
	for _, tp := range t.Players {
		players = append(players, proto.SnapshotPlayer{Name: tp.Name, Active: tp.Active})
	}
	return &proto.TeamDetail{
		ID:      t.ID,
		Name:    t.Name,
		Score:   t.Score,
		Wins:    t.Wins,
		Losses:  t.Losses,
		Players: players,
	}
}
