package catalog

// Default returns the FRED macroeconomic catalog.
func Default() Catalog {
	return New(
		Category{Name: "GDP and Economic Growth", Series: []Series{
			{"GDPC1", "Real_GDP"},
			{"A939RX0Q048SBEA", "Real_Disposable_Income"},
			{"PCE", "Personal_Consumption"},
		}},
		Category{Name: "Labor Market", Series: []Series{
			{"UNRATE", "Unemployment_Rate"},
			{"PAYEMS", "Nonfarm_Payrolls"},
			{"CES0500000003", "Avg_Hourly_Earnings"},
			{"LNS11300060", "U6_Unemployment"},
			{"JTSJOL", "Job_Openings"},
			{"LNS12300060", "Labor_Force_Participation"},
		}},
		Category{Name: "Inflation and Prices", Series: []Series{
			{"CPIAUCSL", "CPI_All_Items"},
			{"CPILFESL", "Core_CPI"},
			{"PPIACO", "Producer_Price_Index"},
			{"PCEPILFE", "Core_PCE_Price_Index"},
		}},
		Category{Name: "Monetary Policy and Finance", Series: []Series{
			{"FEDFUNDS", "Federal_Funds_Rate"},
			{"DGS10", "10Y_Treasury_Yield"},
			{"M2SL", "M2_Money_Stock"},
			{"WALCL", "Fed_Balance_Sheet"},
			{"DTB3", "3M_Treasury_Yield"},
			{"MORTGAGE30US", "30Y_Mortgage_Rate"},
			{"T10YIE", "10Y_Inflation_Expect"},
			{"USD3MTD156N", "3M_LIBOR"},
		}},
		Category{Name: "Financial Markets", Series: []Series{
			{"SP500", "S&P_500_Index"},
			{"VIXCLS", "VIX_Index"},
			{"DTWEXB", "Dollar_Index"},
			{"DEXUSEU", "USD_EUR_Rate"},
			{"GOLDAMGBD228NLBM", "Gold_Price"},
		}},
		Category{Name: "Production and Business Activity", Series: []Series{
			{"INDPRO", "Industrial_Production"},
			{"TCU", "Capacity_Utilization"},
			{"IPB51100N", "Business_Equipment_Prod"},
			{"IPG211S", "Energy_Production"},
			{"IPCONGD", "Consumer_Goods_Prod"},
			{"AMTMNO", "New_Manufacturing_Orders"},
		}},
		Category{Name: "Consumer Behavior", Series: []Series{
			{"UMCSENT", "Consumer_Sentiment"},
			{"RSAFS", "Retail_Sales"},
			{"PSAVERT", "Personal_Saving_Rate"},
			{"TOTALSL", "Consumer_Credit"},
			{"RRSFS", "Retail_Sales_Food_Services"},
		}},
		Category{Name: "Housing Market", Series: []Series{
			{"HOUST", "Housing_Starts"},
			{"CSUSHPINSA", "Case_Shiller_Home_Price"},
			{"MSPUS", "Median_Home_Price"},
			{"HSN1F", "New_Home_Sales"},
			{"BPPRIV", "Building_Permits"},
		}},
		Category{Name: "International Trade", Series: []Series{
			{"BOPGSTB", "Trade_Balance"},
			{"XTEXVA01USM667S", "Exports"},
			{"XTIMVA01USM667S", "Imports"},
		}},
		Category{Name: "Banking and Credit", Series: []Series{
			{"REALLN", "Commercial_Loans"},
			{"TOTCI", "C&I_Loans"},
			{"EXCSRESNW", "Excess_Reserves"},
		}},
		Category{Name: "Energy and Commodities", Series: []Series{
			{"DCOILWTICO", "Crude_Oil_Price"},
		}},
		Category{Name: "Regional Indicators", Series: []Series{
			{"NYUR", "NY_Unemployment"},
			{"CASACBW027SBOG", "CA_Commercial_Loans"},
		}},
		Category{Name: "Economic Indices", Series: []Series{
			{"USALOLITONOSTSAM", "Leading_Index"},
			{"STLFSI4", "Financial_Stress_Index"},
			{"WABSI", "Bank_Stress_Index"},
		}},
	)
}
