// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package display

const (
	Tool       = "strata"
	BannerBlue = `
  oooooo  ooooooo  oooooo     o
 0oo        o0o   0oo   o0   ooo
ooo         ooo   ooo       o0 0o
 0oooo0     ooo   oooooo0  oo0o0oo
     ooo    ooo   ooo  oo 0oo   oo0
 oo0oo0     ooo   oo0   0oo0     0oo
`
	BannerGold = `
ooooooo     o
  o0o      ooo
  ooo     o0 0o
  ooo    oo0o0oo
  ooo   0oo   oo0
  ooo  oo0     0oo    vversion
`
	DocRoot = "https://docs.strata.platform.engineering/en/latest"
)
