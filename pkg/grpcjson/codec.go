// Package grpcjson fournit un codec JSON pour gRPC et les helpers qui
// remplacent le code généré : les contrats de api/*/v1 sont de simples
// structs Go sérialisées en JSON (content-subtype "json").
package grpcjson

import (
	"context"
	"encoding/json"

	"google.golang.org/grpc"
	"google.golang.org/grpc/encoding"
)

// Name est le content-subtype négocié ("application/grpc+json").
const Name = "json"

type codec struct{}

func (codec) Marshal(v any) ([]byte, error)      { return json.Marshal(v) }
func (codec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }
func (codec) Name() string                       { return Name }

func init() {
	encoding.RegisterCodec(codec{})
}

// Method construit la description d'une méthode unaire pour un grpc.ServiceDesc.
// call est typiquement une method expression sur l'interface serveur (ex: FeedServer.GetFeed).
func Method[Srv, Req, Resp any](service, name string, call func(Srv, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	fullMethod := "/" + service + "/" + name
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(Srv), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(Srv), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// Invoke fait un appel unaire en forçant le codec JSON.
func Invoke[Req, Resp any](ctx context.Context, cc grpc.ClientConnInterface, service, name string, in *Req, opts ...grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(Name)}, opts...)
	if err := cc.Invoke(ctx, "/"+service+"/"+name, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
