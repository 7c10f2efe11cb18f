package model

// CellTower describes one observed cell tower.
type CellTower struct {
	MCC      int
	MNC      int
	LAC      int
	CID      int64
	Signal   int
	TimingAdvance int
}

// WifiAccessPoint describes one observed WiFi access point.
type WifiAccessPoint struct {
	BSSID string
	RSSI  int
}

// Network groups the cell towers and WiFi access points observed alongside
// a position fix, for server-side multilateration or diagnostics.
type Network struct {
	CellTowers []CellTower
	WifiAccessPoints []WifiAccessPoint
}

// AddCellTower appends a cell tower observation, allocating Network lazily.
func (n *Network) AddCellTower(c CellTower) *Network {
	if n == nil {
		n = &Network{}
	}
	n.CellTowers = append(n.CellTowers, c)
	return n
}

// AddWifiAccessPoint appends a WiFi observation, allocating Network lazily.
func (n *Network) AddWifiAccessPoint(w WifiAccessPoint) *Network {
	if n == nil {
		n = &Network{}
	}
	n.WifiAccessPoints = append(n.WifiAccessPoints, w)
	return n
}
