package chain

import (
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/subnet42/harvester/internal/config"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *Sidecar) {
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	sc := &config.SidecarEnvConfig{
		SidecarHost: ts.Listener.Addr().(*net.TCPAddr).IP.String(),
		SidecarPort: fmt.Sprint(ts.Listener.Addr().(*net.TCPAddr).Port),
	}
	s, err := NewSidecar(sc)
	if err != nil {
		t.Fatalf("new sidecar: %v", err)
	}
	s.BaseURL = ts.URL
	s.client.SetBaseURL(ts.URL)
	return ts, s
}

func TestNewSidecar_NilConfig(t *testing.T) {
	_, err := NewSidecar(nil)
	if err == nil {
		t.Fatalf("expected error when cfg is nil")
	}
}

func TestGetMetagraph_Success(t *testing.T) {
	payload := `{"statusCode":200,"success":true,"data":{"netuid":42,"name":"harvester","block":100,"tempo":360,"weightsVersion":1,"weightsRateLimit":100,"numUids":3,"maxUids":256,"hotkeys":["a","b","c"],"coldkeys":["x","y","z"],"axons":[{"block":1,"version":1,"ip":"1.2.3.4","port":8091,"ipType":4,"protocol":0}],"active":[true,true,false],"lastUpdate":[0,0,0],"alphaStake":[10,20,30],"taoStake":[1,2,3],"totalStake":[11,22,33]},"error":null}`
	_, s := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chain/subnet-metagraph/42" || r.Method != http.MethodGet {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(payload))
	})

	res, err := s.GetMetagraph(42)
	if err != nil {
		t.Fatalf("GetMetagraph error: %v", err)
	}
	if res.Data.Netuid != 42 || len(res.Data.Hotkeys) != 3 {
		t.Fatalf("unexpected response: %+v", res)
	}
}

func TestSetWeights_Success(t *testing.T) {
	_, s := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chain/set-weights" || r.Method != http.MethodPost {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"statusCode":200,"success":true,"data":"0xdeadbeef","error":null}`))
	})

	res, err := s.SetWeights(SetWeightsParams{Netuid: 42, Dests: []int{0, 1}, Weights: []int{100, 200}})
	if err != nil {
		t.Fatalf("SetWeights error: %v", err)
	}
	if res.Data != "0xdeadbeef" || !res.Success {
		t.Fatalf("unexpected response: %+v", res)
	}
}

func TestSetWeights_HTTPError(t *testing.T) {
	_, s := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte("bad"))
	})
	_, err := s.SetWeights(SetWeightsParams{})
	if err == nil {
		t.Fatalf("expected error")
	}
}

func TestSetWeights_ResponseErrorField(t *testing.T) {
	_, s := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"statusCode":200,"success":false,"data":"","error":{"msg":"rate limited"}}`))
	})
	_, err := s.SetWeights(SetWeightsParams{})
	if err == nil {
		t.Fatalf("expected error")
	}
}

func TestGetLatestBlock_Success(t *testing.T) {
	_, s := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chain/latest-block" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"statusCode":200,"success":true,"data":{"parentHash":"0x1","blockNumber":12345,"stateRoot":"0x2"},"error":null}`))
	})

	res, err := s.GetLatestBlock()
	if err != nil {
		t.Fatalf("GetLatestBlock error: %v", err)
	}
	if res.Data.BlockNumber != 12345 {
		t.Fatalf("unexpected response: %+v", res)
	}
}
