package peer_test

import (
	"testing"

	"github.com/ardanlabs/powchain/foundation/blockchain/peer"
)

func Test_CRUD(t *testing.T) {
	type table struct {
		name  string
		seed  []string
		peers []peer.Peer
		want  int
	}

	tt := []table{
		{
			name:  "basic",
			peers: []peer.Peer{{Host: "host1"}, {Host: "host2"}, {Host: "host3"}},
			want:  3,
		},
		{
			name:  "seeded",
			seed:  []string{"host1", "", "host4"},
			peers: []peer.Peer{{Host: "host1"}, {Host: "host2"}},
			want:  3,
		},
	}

	for _, tst := range tt {
		f := func(t *testing.T) {
			ps := peer.NewPeerSet(tst.seed...)

			for _, peer := range tst.peers {
				ps.Add(peer)
			}

			if ps.Len() != tst.want {
				t.Logf("Test %s:\tgot: %d", tst.name, ps.Len())
				t.Logf("Test %s:\texp: %d", tst.name, tst.want)
				t.Fatalf("Test %s:\tShould have the right number of peers.", tst.name)
			}

			peers := ps.Copy("")
			if len(peers) != tst.want {
				t.Logf("Test %s:\tgot: %d", tst.name, len(peers))
				t.Logf("Test %s:\texp: %d", tst.name, tst.want)
				t.Fatalf("Test %s:\tShould get back the right peers.", tst.name)
			}

			for i := 1; i < len(peers); i++ {
				if peers[i-1].Host > peers[i].Host {
					t.Fatalf("Test %s:\tShould get the peers ordered by host.", tst.name)
				}
			}

			peers = ps.Copy("host2")
			if len(peers) != tst.want-1 {
				t.Logf("Test %s:\tgot: %d", tst.name, len(peers))
				t.Logf("Test %s:\texp: %d", tst.name, tst.want-1)
				t.Fatalf("Test %s:\tShould leave out the matching host.", tst.name)
			}

			if ps.Add(peer.New("host2")) {
				t.Fatalf("Test %s:\tShould not add a known peer twice.", tst.name)
			}

			ps.Remove(peer.New("host2"))
			if ps.Len() != tst.want-1 {
				t.Fatalf("Test %s:\tShould be able to remove a peer.", tst.name)
			}
		}

		t.Run(tst.name, f)
	}
}
